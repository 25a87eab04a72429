package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/smilemakc/cairs"
)

// parseInputs turns --inputs's raw string into a list Value bound to the
// "inputs" variable an example program can read via var{name:"inputs"}
// (spec.md §6: "--inputs accepts either a comma-separated scalar list...
// or a JSON array; numeric-looking tokens in comma form are coerced to
// numbers").
func parseInputs(raw string) (cairs.Value, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var anyVals []interface{}
		if err := json.Unmarshal([]byte(trimmed), &anyVals); err != nil {
			return cairs.Value{}, err
		}
		items := make([]cairs.Value, len(anyVals))
		for i, v := range anyVals {
			items[i] = fromJSONScalar(v)
		}
		return cairs.Value{Kind: cairs.KList, List: items}, nil
	}

	parts := strings.Split(trimmed, ",")
	items := make([]cairs.Value, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		items = append(items, coerceScalar(p))
	}
	return cairs.Value{Kind: cairs.KList, List: items}, nil
}

func coerceScalar(tok string) cairs.Value {
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return cairs.Value{Kind: cairs.KInt, I: i}
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return cairs.Value{Kind: cairs.KFloat, F: f}
	}
	return cairs.Value{Kind: cairs.KString, S: tok}
}

func fromJSONScalar(v interface{}) cairs.Value {
	switch t := v.(type) {
	case bool:
		return cairs.Value{Kind: cairs.KBool, B: t}
	case float64:
		if t == float64(int64(t)) {
			return cairs.Value{Kind: cairs.KInt, I: int64(t)}
		}
		return cairs.Value{Kind: cairs.KFloat, F: t}
	case string:
		return cairs.Value{Kind: cairs.KString, S: t}
	default:
		return cairs.Value{Kind: cairs.KString, S: ""}
	}
}

// loadInputsFile reads a JSON array from disk (--inputs-file).
func loadInputsFile(path string) (cairs.Value, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cairs.Value{}, err
	}
	return parseInputs(string(raw))
}
