// pkg/backup/backup_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: afero MemMapFs
// PURPOSE: Content addressed backups, dedupe, pruning and restore

package backup_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/arthur-debert/nmm/pkg/backup"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick returns a clock that advances one minute per call.
func tick() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestHash(t *testing.T) {
	// BLAKE3 of the empty input.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", backup.Hash(nil))
	assert.NotEqual(t, backup.Hash([]byte("a")), backup.Hash([]byte("b")))
}

func TestSnapshotAndRead(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0, backup.WithClock(tick()))

	e, err := store.Snapshot("/save/mod_settings.bin")
	require.NoError(t, err)
	assert.Nil(t, e, "nothing to back up yet")

	content := bytes.Repeat([]byte("settings payload "), 200)
	require.NoError(t, afero.WriteFile(fsys, "/save/mod_settings.bin", content, 0644))

	e, err = store.Snapshot("/save/mod_settings.bin")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "mod_settings.bin", e.Name)
	assert.Equal(t, backup.Hash(content), e.Hash)
	assert.Equal(t, e.Hash+".mod_settings.bin.zst", e.FileName)
	assert.Less(t, e.Size, int64(len(content)))
	assert.Len(t, e.ID(), backup.IDLength)

	got, err := store.Read(*e)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestAddDeduplicates(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0, backup.WithClock(tick()))

	first, err := store.Add("mod_config.xml", []byte("<Mods/>"))
	require.NoError(t, err)
	_, err = store.Add("mod_config.xml", []byte("<Mods></Mods>"))
	require.NoError(t, err)
	again, err := store.Add("mod_config.xml", []byte("<Mods/>"))
	require.NoError(t, err)

	assert.Equal(t, first.FileName, again.FileName)
	assert.True(t, again.Time.After(first.Time))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Hash, entries[0].Hash, "refreshed backup sorts first")
}

func TestPruneKeepsNewestPerName(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 2, backup.WithClock(tick()))

	for i := 0; i < 5; i++ {
		_, err := store.Add("mod_settings.bin", []byte(fmt.Sprintf("version %d", i)))
		require.NoError(t, err)
	}
	_, err := store.Add("mod_config.xml", []byte("other"))
	require.NoError(t, err)

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "mod_config.xml", entries[0].Name)
	assert.Equal(t, backup.Hash([]byte("version 4")), entries[1].Hash)
	assert.Equal(t, backup.Hash([]byte("version 3")), entries[2].Hash)
}

func TestListIgnoresForeignFiles(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, name := range []string{"README", "nothex.file.zst", "abc.zst", "abc..zst"} {
		require.NoError(t, afero.WriteFile(fsys, "/backups/"+name, []byte("x"), 0644))
	}
	entries, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFind(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0, backup.WithClock(tick()))

	e, err := store.Add("a.bin", []byte("one"))
	require.NoError(t, err)
	_, err = store.Add("b.bin", []byte("two"))
	require.NoError(t, err)

	found, err := store.Find(e.ID())
	require.NoError(t, err)
	assert.Equal(t, e.FileName, found.FileName)

	found, err = store.Find(e.Hash)
	require.NoError(t, err)
	assert.Equal(t, e.FileName, found.FileName)

	_, err = store.Find("zzzz")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	_, err = store.Find("")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRestore(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0, backup.WithClock(tick()))
	target := "/save/mod_config.xml"

	require.NoError(t, afero.WriteFile(fsys, target, []byte("old"), 0644))
	old, err := store.Snapshot(target)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fsys, target, []byte("new"), 0644))
	require.NoError(t, store.Restore(*old, target))

	got, err := afero.ReadFile(fsys, target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	entries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2, "the overwritten content was backed up")
}

func TestReadDetectsCorruption(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := backup.New(fsys, "/backups", 0)

	e, err := store.Add("x.bin", []byte("payload"))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, "/backups/"+e.FileName, []byte("not zstd"), 0644))

	_, err = store.Read(*e)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDecompressionFailed))
}

func TestAddRejectsBadNames(t *testing.T) {
	store := backup.New(filesystem.NewMemory(), "/backups", 0)
	for _, name := range []string{"", "a/b", `a\b`} {
		_, err := store.Add(name, []byte("x"))
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), name)
	}
}
