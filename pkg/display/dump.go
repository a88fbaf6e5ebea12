package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/nmm/pkg/settings"
	"gopkg.in/yaml.v3"
)

// DumpFormats lists the formats Dump accepts.
var DumpFormats = []string{"yaml", "text"}

type dumpEntry struct {
	Current interface{} `yaml:"current"`
	Next    interface{} `yaml:"next"`
}

// Dump writes every setting of s to w. The yaml format maps keys to their
// current and next values; text prints one key=current line per setting.
func Dump(w io.Writer, s *settings.Store, format string) error {
	switch strings.ToLower(format) {
	case "", "yaml":
		doc := make(map[string]dumpEntry, s.Len())
		for _, e := range s.Entries() {
			doc[e.Key] = dumpEntry{Current: e.Pair.Current.Interface(), Next: e.Pair.Next.Interface()}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for _, e := range s.Entries() {
			if _, err := fmt.Fprintf(w, "%s=%s\n", e.Key, e.Pair.Current); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown dump format %q (known: %s)", format, strings.Join(DumpFormats, ", "))
	}
}
