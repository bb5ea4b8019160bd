// Command tlbc is a small CLI over the tlb package: compiling schema
// files, decoding or encoding single cells against them, and decoding a
// batch of cells concurrently against one shared Runtime.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tlbgo/tlb"
	"github.com/tlbgo/tlb/internal/debug"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: tlbc <compile|decode|encode|decode-batch> [flags]")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode-batch":
		err = runDecodeBatch(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "tlbc: unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tlbc: %v\n", err)
		os.Exit(1)
	}
}

// config is the optional YAML config read by -config: a named schema
// registry plus per-invocation defaults for the decode options.
type config struct {
	Schemas  map[string]string `yaml:"schemas"`
	AutoText bool              `yaml:"autoText"`
	ByTag    bool              `yaml:"byTag"`
}

func loadConfig(path string) (config, error) {
	var c config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

func compileSchema(cfg config, schemaFlag, schemaName string) (*tlb.Runtime, error) {
	path := schemaFlag
	if path == "" && schemaName != "" {
		var ok bool
		path, ok = cfg.Schemas[schemaName]
		if !ok {
			return nil, fmt.Errorf("no schema registered under name %q", schemaName)
		}
	}
	if path == "" {
		return nil, fmt.Errorf("no -schema given and no -schema-name found in config")
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return tlb.Compile(string(text))
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	schema := fs.String("schema", "", "path to a TL-B schema file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := compileSchema(config{}, *schema, ""); err != nil {
		if debug.Enabled {
			debug.Log(nil, "compile", "schema %q failed: %v", *schema, err)
		}
		return err
	}
	fmt.Println("schema compiled successfully")
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a tlbc YAML config file")
	schema := fs.String("schema", "", "path to a TL-B schema file")
	schemaName := fs.String("schema-name", "", "name of a schema registered in -config")
	hexData := fs.String("hex", "", "hex-encoded cell bits")
	bits := fs.Int("bits", -1, "number of significant bits in -hex (defaults to 8*len)")
	typeName := fs.String("type", "", "decode directly against this type, skipping root selection")
	byTag := fs.Bool("by-tag", false, "select the root constructor by tag")
	autoText := fs.Bool("auto-text", false, "auto-detect UTF-8 byte-aligned bit fields as text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	rt, err := compileSchema(cfg, *schema, *schemaName)
	if err != nil {
		return err
	}

	cell, err := cellFromHex(*hexData, *bits)
	if err != nil {
		return err
	}

	opts := decodeOptions(cfg, *byTag, *autoText)
	var v tlb.Value
	if *typeName != "" {
		v, err = rt.DecodeByType(cell, *typeName, opts...)
	} else {
		v, err = rt.Decode(cell, opts...)
	}
	if err != nil {
		if debug.Enabled {
			debug.Log(nil, "decode", "type=%q hex=%q: %v", *typeName, *hexData, err)
		}
		return err
	}

	printValue(os.Stdout, v, 0)
	return nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	schema := fs.String("schema", "", "path to a TL-B schema file")
	kind := fs.String("kind", "", `constructor to encode, e.g. "Pair" or "U_a"`)
	fields := fs.String("fields", "", "comma-separated name=value pairs; true/false become booleans, integers become ints, anything else is kept as text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := compileSchema(config{}, *schema, "")
	if err != nil {
		return err
	}

	v, err := parseValue(*kind, *fields)
	if err != nil {
		return err
	}

	cell, err := rt.Encode(v)
	if err != nil {
		if debug.Enabled {
			debug.Log(nil, "encode", "kind=%q: %v", *kind, err)
		}
		return err
	}
	fmt.Println(hex.EncodeToString(cell.Serialize()))
	return nil
}

// batchItem is one line of a decode-batch input file.
type batchItem struct {
	Hex  string `yaml:"hex"`
	Bits int    `yaml:"bits"`
	Type string `yaml:"type"`
}

func runDecodeBatch(args []string) error {
	fs := flag.NewFlagSet("decode-batch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a tlbc YAML config file")
	schema := fs.String("schema", "", "path to a TL-B schema file")
	schemaName := fs.String("schema-name", "", "name of a schema registered in -config")
	inputPath := fs.String("input", "", "path to a YAML list of {hex, bits, type} items")
	byTag := fs.Bool("by-tag", false, "select each root constructor by tag")
	autoText := fs.Bool("auto-text", false, "auto-detect UTF-8 byte-aligned bit fields as text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	rt, err := compileSchema(cfg, *schema, *schemaName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	var items []batchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}

	// rt is an immutable compiled Runtime, safe to call concurrently from
	// every goroutine in the group without synchronization.
	results := make([]string, len(items))
	var g errgroup.Group
	opts := decodeOptions(cfg, *byTag, *autoText)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			id := uuid.New()
			cell, err := cellFromHex(item.Hex, item.Bits)
			if err != nil {
				results[i] = fmt.Sprintf("%s: %v", id, err)
				return nil
			}

			var v tlb.Value
			if item.Type != "" {
				v, err = rt.DecodeByType(cell, item.Type, opts...)
			} else {
				v, err = rt.Decode(cell, opts...)
			}
			if err != nil {
				results[i] = fmt.Sprintf("%s: %v", id, err)
				return nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s: %s", id, v.RecordType)
			results[i] = b.String()
			return nil
		})
	}
	_ = g.Wait() // per-item errors are captured in results, never propagated

	for _, r := range results {
		fmt.Println(r)
	}
	return nil
}

func decodeOptions(cfg config, byTag, autoText bool) []tlb.DecodeOption {
	return []tlb.DecodeOption{
		tlb.WithByTag(byTag || cfg.ByTag),
		tlb.WithAutoText(autoText || cfg.AutoText),
	}
}

func cellFromHex(hexData string, bits int) (*tlb.Cell, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexData))
	if err != nil {
		return nil, fmt.Errorf("decoding -hex: %w", err)
	}
	if bits < 0 {
		bits = len(raw) * 8
	}
	b := tlb.NewBuilder()
	if err := b.StoreBits(raw, bits); err != nil {
		return nil, err
	}
	return b.EndCell()
}

// parseValue builds a flat single-constructor Value from a "k=v,k=v"
// field list; this is a convenience for simple schemas from the command
// line, not a general Value literal syntax.
func parseValue(kind, fieldList string) (tlb.Value, error) {
	v := tlb.Value{Kind: tlb.KindRecord, RecordType: kind}
	if fieldList == "" {
		return v, nil
	}
	for _, pair := range strings.Split(fieldList, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return v, fmt.Errorf("malformed field %q, expected name=value", pair)
		}
		v.Fields = append(v.Fields, tlb.Field{Name: name, Value: parseScalar(raw)})
	}
	return v, nil
}

func parseScalar(raw string) tlb.Value {
	if raw == "true" || raw == "false" {
		return tlb.Value{Kind: tlb.KindBool, Bool: raw == "true"}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tlb.Value{Kind: tlb.KindInt, Int: n}
	}
	return tlb.Value{Kind: tlb.KindText, Text: raw}
}

func printValue(w *os.File, v tlb.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v.Kind {
	case tlb.KindRecord:
		fmt.Fprintf(w, "%s%s\n", indent, v.RecordType)
		for _, f := range v.Fields {
			fmt.Fprintf(w, "%s  %s:\n", indent, f.Name)
			printValue(w, f.Value, depth+2)
		}
	case tlb.KindInt:
		fmt.Fprintf(w, "%s%d\n", indent, v.Int)
	case tlb.KindBigInt:
		fmt.Fprintf(w, "%s%s\n", indent, v.BigInt.String())
	case tlb.KindBool:
		fmt.Fprintf(w, "%s%t\n", indent, v.Bool)
	case tlb.KindText:
		fmt.Fprintf(w, "%s%q\n", indent, v.Text)
	case tlb.KindBits:
		fmt.Fprintf(w, "%s%s (%d bits)\n", indent, hex.EncodeToString(v.Bits), v.BitLen)
	case tlb.KindCellRef:
		fmt.Fprintf(w, "%s<cell>\n", indent)
	case tlb.KindSequence:
		for _, e := range v.Sequence {
			printValue(w, e, depth)
		}
	case tlb.KindDictionary:
		for _, e := range v.Dictionary {
			fmt.Fprintf(w, "%s%s:\n", indent, e.Key.String())
			printValue(w, e.Value, depth+1)
		}
	case tlb.KindTuple:
		for _, e := range v.Tuple {
			printValue(w, e, depth)
		}
	case tlb.KindAddress:
		if v.AddressNone {
			fmt.Fprintf(w, "%snone\n", indent)
		} else {
			fmt.Fprintf(w, "%s%d:%s\n", indent, v.AddressWorkchain, v.BigInt.String())
		}
	case tlb.KindAbsent:
		fmt.Fprintf(w, "%s<absent>\n", indent)
	}
}
