// Command cairs is the thin example-runner CLI (spec.md §6): it loads a
// bundled document, validates it, and reduces its result — an external
// collaborator contracted against the core, not part of it. Flag parsing
// and dispatch follow mbflow's cmd/server/main.go shape (flag.Parse
// then a sequence of small handler functions), narrowed from an HTTP
// server's lifecycle to a single run-and-exit.
package main

import (
	"fmt"
	"os"

	"github.com/smilemakc/cairs/internal/cairserr"
)

func usage() string {
	return `cairs - run or validate a CAIRS document

Usage:
  cairs <example>              run an example by name
  cairs list                   list bundled examples
  cairs validate <example>     validate without running
  cairs help                   show this message

Flags:
  -v, --verbose                verbose output
  -l, --list                   same as the list subcommand
  -h, --help                   same as the help subcommand
      --validate               validate only, do not run
      --synth <target>         generate host code for an example (unimplemented)
      --inputs <v>              comma list or JSON array bound to "inputs"
      --inputs-file <path>      read --inputs' JSON array from a file
      --watch <addr>            stream effects/result to ws://<addr> as the run completes
`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cw := newColorWriter()

	var (
		verbose      bool
		list         bool
		help         bool
		validateOnly bool
		synth        string
		inputsRaw    string
		inputsFile   string
		watchAddr    string
		positional   []string
	)

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-v", "--verbose":
			verbose = true
		case "-l", "--list":
			list = true
		case "-h", "--help":
			help = true
		case "--validate":
			validateOnly = true
		case "--synth":
			i++
			if i < len(args) {
				synth = args[i]
			}
		case "--inputs":
			i++
			if i < len(args) {
				inputsRaw = args[i]
			}
		case "--inputs-file":
			i++
			if i < len(args) {
				inputsFile = args[i]
			}
		case "--watch":
			i++
			if i < len(args) {
				watchAddr = args[i]
			} else {
				watchAddr = "localhost:8765"
			}
		default:
			positional = append(positional, a)
		}
	}

	if help || (len(positional) > 0 && positional[0] == "help") {
		cw.Println(usage())
		return 0
	}

	if list || (len(positional) > 0 && positional[0] == "list") {
		return runList(cw)
	}

	if synth != "" {
		err := cairserr.Unimplemented("--synth %q: the Python code synthesizer is an external collaborator, out of CORE scope", synth)
		cw.fail("%v", err)
		return 1
	}

	name := ""
	if len(positional) > 0 && positional[0] == "validate" {
		validateOnly = true
		if len(positional) > 1 {
			name = positional[1]
		}
	} else if len(positional) > 0 {
		name = positional[0]
	}

	if name == "" {
		cw.Println(usage())
		return 1
	}

	opts := runOptions{verbose: verbose, validateOnly: validateOnly, watchAddr: watchAddr}

	if inputsFile != "" {
		v, err := loadInputsFile(inputsFile)
		if err != nil {
			cw.fail("cairs: --inputs-file: %v", err)
			return 1
		}
		opts.inputs, opts.hasInputs = v, true
	} else if inputsRaw != "" {
		v, err := parseInputs(inputsRaw)
		if err != nil {
			cw.fail("cairs: --inputs: %v", err)
			return 1
		}
		opts.inputs, opts.hasInputs = v, true
	}

	return runExample(cw, name, opts)
}

func runList(cw *colorWriter) int {
	names, err := exampleNames()
	if err != nil {
		cw.fail("cairs: %v", err)
		return 1
	}
	for _, n := range names {
		cw.Println(fmt.Sprintf("  %s", n))
	}
	return 0
}
