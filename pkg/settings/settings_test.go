// pkg/settings/settings_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: In-memory buffers, afero MemMapFs
// PURPOSE: Value codec, entry layout and settings file round trips

package settings_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/arthur-debert/nmm/pkg/envelope"
	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/settings"
	"github.com/arthur-debert/nmm/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomStore generates stores of arbitrary keys and values. Numbers are
// never NaN because NaN breaks equality.
type randomStore map[string]settings.Pair

func randomString(r *rand.Rand) string {
	runes := []rune{'a', 'b', '.', 'Z', '0', 'é', '⁀', '\u0000', '𐀀', '_'}
	out := make([]rune, r.Intn(12))
	for i := range out {
		out[i] = runes[r.Intn(len(runes))]
	}
	return string(out)
}

func randomValue(r *rand.Rand) settings.Value {
	switch r.Intn(4) {
	case 0:
		return settings.None()
	case 1:
		return settings.Bool(r.Intn(2) == 1)
	case 2:
		for {
			v := math.Float64frombits(r.Uint64())
			if !math.IsNaN(v) {
				return settings.Number(v)
			}
		}
	default:
		return settings.String(randomString(r))
	}
}

func (randomStore) Generate(r *rand.Rand, size int) reflect.Value {
	m := randomStore{}
	for i := 0; i < r.Intn(size+1); i++ {
		m[randomString(r)] = settings.Pair{Current: randomValue(r), Next: randomValue(r)}
	}
	return reflect.ValueOf(m)
}

func TestValueCodec(t *testing.T) {
	tests := []struct {
		name  string
		value settings.Value
		tag   uint32
		bytes []byte
	}{
		{"none", settings.None(), 0, nil},
		{"false", settings.Bool(false), 1, []byte{0, 0, 0, 0}},
		{"true", settings.Bool(true), 1, []byte{0, 0, 0, 1}},
		{"number", settings.Number(1), 2, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}},
		{"string", settings.String("hi"), 3, []byte{0, 0, 0, 2, 'h', 'i'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tag, settings.TypeTag(tt.value))

			var buf bytes.Buffer
			require.NoError(t, settings.EncodeValue(wire.NewWriter(&buf), tt.value))
			assert.Equal(t, len(tt.bytes), buf.Len())
			if len(tt.bytes) > 0 {
				assert.Equal(t, tt.bytes, buf.Bytes())
			}

			got, err := settings.DecodeValue(wire.NewReader(&buf), tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestValueAccessors(t *testing.T) {
	b, ok := settings.Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = settings.String("x").AsNumber()
	assert.False(t, ok)

	n, ok := settings.Number(2.5).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)

	s, ok := settings.String("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	assert.Equal(t, settings.KindNone, settings.Value{}.Kind())
	assert.Nil(t, settings.None().Interface())
	assert.Equal(t, "Number(2.5)", settings.Number(2.5).String())
	assert.Equal(t, `String("x")`, settings.String("x").String())
	assert.Equal(t, "Bool(false)", settings.Bool(false).String())
	assert.Equal(t, "None()", settings.None().String())
	assert.Equal(t, "string", settings.KindString.String())
}

func TestDecodeValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		tag   uint32
		input []byte
		code  errors.ErrorCode
	}{
		{"tag_4", 4, nil, errors.ErrInvalidTypeID},
		{"tag_max", math.MaxUint32, nil, errors.ErrInvalidTypeID},
		{"bool_two", 1, []byte{0, 0, 0, 2}, errors.ErrInvalidBoolEncoding},
		{"bool_high_bit", 1, []byte{0x80, 0, 0, 1}, errors.ErrInvalidBoolEncoding},
		{"truncated_number", 2, []byte{0, 0, 0}, errors.ErrShortRead},
		{"bad_utf8", 3, []byte{0, 0, 0, 1, 0xff}, errors.ErrUTF8Decode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settings.DecodeValue(wire.NewReader(bytes.NewReader(tt.input)), tt.tag)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
		})
	}
}

func TestEntryLayout(t *testing.T) {
	var buf bytes.Buffer
	entry := settings.Entry{
		Key:  "a.b",
		Pair: settings.Pair{Current: settings.Bool(true), Next: settings.None()},
	}
	require.NoError(t, settings.WriteEntry(wire.NewWriter(&buf), entry))

	want := []byte{
		0, 0, 0, 3, 'a', '.', 'b',
		0, 0, 0, 1,
		0, 0, 0, 0,
		0, 0, 0, 1,
	}
	assert.Equal(t, want, buf.Bytes())

	got, err := settings.ReadEntry(wire.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func saveToBytes(t *testing.T, s *settings.Store, c envelope.Compressor) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, settings.Save(&buf, s, c))
	return buf.Bytes()
}

func loadFromBytes(file []byte, c envelope.Compressor) (*settings.Store, error) {
	return settings.Load(bytes.NewReader(file), int64(len(file)), c)
}

func TestStoreRoundTripProperty(t *testing.T) {
	for _, c := range []envelope.Compressor{envelope.FastLZ, envelope.LZ4} {
		t.Run(c.Name(), func(t *testing.T) {
			property := func(m randomStore) bool {
				store := settings.FromMap(m)
				var buf bytes.Buffer
				if err := settings.Save(&buf, store, c); err != nil {
					return false
				}
				loaded, err := loadFromBytes(buf.Bytes(), c)
				return err == nil && reflect.DeepEqual(store.Map(), loaded.Map())
			}
			require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
		})
	}
}

func TestStoreRoundTripOddKey(t *testing.T) {
	store := settings.FromMap(map[string]settings.Pair{
		"\x00\x00\u0001.K 𐀀\u0080ࠀ\x00𐁀\x00\x00\u0080\x00\u0001\u0001ࠁ\u0002": {
			Current: settings.Bool(false),
			Next:    settings.Bool(false),
		},
	})

	loaded, err := loadFromBytes(saveToBytes(t, store, envelope.FastLZ), envelope.FastLZ)
	require.NoError(t, err)
	assert.Equal(t, store.Map(), loaded.Map())
}

func TestSaveIsDeterministic(t *testing.T) {
	store := settings.FromMap(map[string]settings.Pair{
		"b": {Current: settings.Number(2), Next: settings.Number(3)},
		"a": {Current: settings.String("x"), Next: settings.None()},
		"c": {Current: settings.Bool(true), Next: settings.Bool(false)},
	})
	assert.Equal(t, saveToBytes(t, store, envelope.FastLZ), saveToBytes(t, store.Clone(), envelope.FastLZ))
}

func TestEntryCountInvariant(t *testing.T) {
	store := settings.FromMap(map[string]settings.Pair{
		"mod.a": {Current: settings.Bool(true), Next: settings.Bool(true)},
		"mod.b": {Current: settings.Number(4), Next: settings.Number(5)},
		"mod.c": {Current: settings.String("c"), Next: settings.None()},
	})

	payload, err := settings.Encode(store)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(payload[:8]))

	for _, declared := range []uint64{0, 2, 4, math.MaxUint64} {
		tampered := append([]byte(nil), payload...)
		binary.BigEndian.PutUint64(tampered[:8], declared)
		file, err := envelope.CompressBytes(tampered, envelope.FastLZ)
		require.NoError(t, err)

		_, err = loadFromBytes(file, envelope.FastLZ)
		require.Error(t, err)
		assert.Equal(t, errors.ErrEntryCountMismatch, errors.GetErrorCode(err), "declared %d", declared)
	}
}

func rawEntry(key string, currentTag, nextTag uint32, values ...byte) []byte {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	_ = w.String32(binary.BigEndian, key)
	_ = w.Uint32(binary.BigEndian, currentTag)
	_ = w.Uint32(binary.BigEndian, nextTag)
	_ = w.Raw(values)
	return buf.Bytes()
}

func TestLoadRejectsInvalidTags(t *testing.T) {
	tests := []struct {
		name  string
		entry []byte
	}{
		{"current_tag_4", rawEntry("k", 4, 0)},
		{"next_tag_4", rawEntry("k", 0, 4)},
		{"next_tag_after_valid_current", rawEntry("k", 1, 9, 0, 0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, 8)
			binary.BigEndian.PutUint64(payload, 2)
			payload = append(payload, rawEntry("ok", 0, 0)...)
			payload = append(payload, tt.entry...)

			file, err := envelope.CompressBytes(payload, envelope.FastLZ)
			require.NoError(t, err)

			_, err = loadFromBytes(file, envelope.FastLZ)
			require.Error(t, err)
			assert.Equal(t, errors.ErrInvalidTypeID, errors.GetErrorCode(err))
			assert.Contains(t, err.Error(), `setting "k"`)
			assert.Contains(t, err.Error(), "loading setting number 1")
		})
	}
}

func TestLoadRejectsTruncatedEntry(t *testing.T) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, 1)
	payload = append(payload, rawEntry("k", 3, 0, 0, 0, 0, 10, 'a')...)

	file, err := envelope.CompressBytes(payload, envelope.FastLZ)
	require.NoError(t, err)

	_, err = loadFromBytes(file, envelope.FastLZ)
	require.Error(t, err)
	assert.Equal(t, errors.ErrShortRead, errors.GetErrorCode(err))
}

func TestStoreOperations(t *testing.T) {
	s := settings.NewStore()
	s.Set("b.x", settings.Pair{Current: settings.Number(1)})
	s.Set("a.y", settings.Pair{Current: settings.Number(2)})
	s.Set("a.z", settings.Pair{Current: settings.Number(3)})
	s.Set("a.y", settings.Pair{Current: settings.Number(4)})

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a.y", "a.z", "b.x"}, s.Keys())

	p, ok := s.Get("a.y")
	require.True(t, ok)
	assert.Equal(t, settings.Number(4), p.Current)

	assert.Len(t, s.WithPrefix("a."), 2)

	filtered := s.Filter(map[string]struct{}{"a.z": {}, "missing": {}})
	assert.Equal(t, []string{"a.z"}, filtered.Keys())

	other := settings.NewStore()
	other.Set("a.z", settings.Pair{Current: settings.String("new")})
	other.Set("c", settings.Pair{})
	s.Merge(other)
	p, _ = s.Get("a.z")
	assert.Equal(t, settings.String("new"), p.Current)
	assert.Equal(t, 4, s.Len())

	s.Delete("c")
	_, ok = s.Get("c")
	assert.False(t, ok)
}

func TestLoadFileAndSaveFile(t *testing.T) {
	fsys := filesystem.NewMemory()
	path := "/save00/mod_settings.bin"

	_, err := settings.LoadFile(fsys, path, envelope.FastLZ)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))

	store := settings.FromMap(map[string]settings.Pair{
		"mod_a.speed": {Current: settings.Number(1.5), Next: settings.Number(2)},
	})
	require.NoError(t, settings.SaveFile(fsys, path, store, envelope.FastLZ))

	loaded, err := settings.LoadFile(fsys, path, envelope.FastLZ)
	require.NoError(t, err)
	assert.Equal(t, store.Map(), loaded.Map())
}
