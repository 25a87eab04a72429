package main

import (
	"sort"
	"strings"

	"github.com/smilemakc/cairs"
)

const examplesDir = "examples"

// exampleNames lists every bundled example, stripped of its directory
// prefix and .json extension, sorted for stable `list` output.
func exampleNames() ([]string, error) {
	entries, err := cairs.ExamplesFS.ReadDir(examplesDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// loadExample reads a bundled example by name, accepted with or without
// its .json extension (spec.md §6: "an example path (with or without
// extension)").
func loadExample(name string) ([]byte, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return cairs.ExamplesFS.ReadFile(examplesDir + "/" + name)
}
