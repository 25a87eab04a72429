package cairs

import "embed"

// ExamplesFS bundles the runnable example documents under examples/ into
// the binary, so the CLI works from any working directory.
//
//go:embed examples/*.json
var ExamplesFS embed.FS
