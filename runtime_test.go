package tlb_test

import (
	"embed"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tlbgo/tlb"
)

//go:embed testdata/*
var testdataFS embed.FS

type fixture struct {
	Name     string `yaml:"name"`
	Schema   string `yaml:"schema"`
	ByTag    bool   `yaml:"byTag"`
	AutoText bool   `yaml:"autoText"`
	RootType string `yaml:"type"`
	Cases    []struct {
		Hex        string            `yaml:"hex"`
		Bits       int               `yaml:"bits"`
		WantType   string            `yaml:"wantType"`
		WantFields map[string]string `yaml:"wantFields"`
		WantAbsent []string          `yaml:"wantAbsent"`
		WantError  bool              `yaml:"wantError"`
	} `yaml:"cases"`
}

func loadFixtures(t *testing.T) []fixture {
	t.Helper()

	var fixtures []fixture
	err := fs.WalkDir(testdataFS, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading fixture %q", path)
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		data, err := fs.ReadFile(testdataFS, path)
		require.NoError(t, err, "loading fixture %q", path)

		var f fixture
		require.NoError(t, yaml.Unmarshal(data, &f), "parsing fixture %q", path)
		fixtures = append(fixtures, f)
		return nil
	})
	require.NoError(t, err)
	return fixtures
}

func fieldValue(rec tlb.Value, name string) (tlb.Value, bool) {
	for _, f := range rec.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return tlb.Value{}, false
}

// fieldString renders a decoded field the same simple way every fixture's
// wantFields entries are written: decimal for numbers, "true"/"false" for
// booleans, the decoded text itself for text fields.
func fieldString(v tlb.Value) string {
	switch v.Kind {
	case tlb.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case tlb.KindBigInt:
		return v.BigInt.String()
	case tlb.KindBool:
		return strconv.FormatBool(v.Bool)
	case tlb.KindText:
		return v.Text
	default:
		return ""
	}
}

// TestAutoTextDefaultsOn locks in spec's documented default: a Decode
// call with no options at all still auto-detects byte-aligned UTF-8 bit
// fields as text, rather than requiring WithAutoText(true) to be passed
// explicitly every time.
func TestAutoTextDefaultsOn(t *testing.T) {
	rt, err := tlb.Compile(`msg$_ body:(bits 32) = Msg;`)
	require.NoError(t, err)

	b := tlb.NewBuilder()
	require.NoError(t, b.StoreBits([]byte("ABCD"), 32))
	cell, err := b.EndCell()
	require.NoError(t, err)

	v, err := rt.Decode(cell)
	require.NoError(t, err)

	fv, ok := fieldValue(v, "body")
	require.True(t, ok)
	assert.Equal(t, tlb.KindText, fv.Kind)
	assert.Equal(t, "ABCD", fv.Text)
}

func TestFixtures(t *testing.T) {
	for _, f := range loadFixtures(t) {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			rt, err := tlb.Compile(f.Schema)
			require.NoError(t, err)

			for _, c := range f.Cases {
				raw, err := hex.DecodeString(strings.TrimSpace(c.Hex))
				require.NoError(t, err)

				b := tlb.NewBuilder()
				require.NoError(t, b.StoreBits(raw, c.Bits))
				cell, err := b.EndCell()
				require.NoError(t, err)

				var opts []tlb.DecodeOption
				if f.ByTag {
					opts = append(opts, tlb.WithByTag(true))
				}
				if f.AutoText {
					opts = append(opts, tlb.WithAutoText(true))
				}

				var v tlb.Value
				if f.RootType != "" {
					v, err = rt.DecodeByType(cell, f.RootType, opts...)
				} else {
					v, err = rt.Decode(cell, opts...)
				}

				if c.WantError {
					assert.Error(t, err)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, c.WantType, v.RecordType)

				for name, want := range c.WantFields {
					fv, ok := fieldValue(v, name)
					require.True(t, ok, "field %q missing", name)
					assert.Equal(t, want, fieldString(fv), "field %q", name)
				}
				for _, name := range c.WantAbsent {
					_, ok := fieldValue(v, name)
					assert.False(t, ok, "field %q should be absent", name)
				}
			}
		})
	}
}
