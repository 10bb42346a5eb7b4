package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/angeloszaimis/family-classifier/internal/schema"
)

// loadRecord reads a JSON object from path ("-" for stdin) and applies
// key=value overrides on top of it.
func loadRecord(path string, stdin io.Reader, sets []string) (map[string]any, error) {
	rec := map[string]any{}

	if path != "" {
		var r io.Reader = stdin
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			r = f
		}

		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("read record %s: %w", path, err)
		}
	}

	known := make(map[string]bool, schema.Width)
	for _, name := range schema.Names() {
		known[name] = true
	}

	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		if !known[key] {
			return nil, fmt.Errorf("unknown feature %q in --set", key)
		}
		rec[key] = parseValue(value)
	}

	return rec, nil
}

// parseValue sends numeric text as a number and anything else as a string
// for the server to judge.
func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	if f, err := cast.ToFloat64E(trimmed); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return raw
}
