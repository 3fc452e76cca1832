package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SigmaG33/ccache/internal/storage"
)

// Invocation is the context of one compilation, built once per process.
// origArgv is what the real compiler receives on fall-through (slot 0 already
// resolved to an absolute path); strippedArgv is the classifier's
// reconstruction, used both for the -E run and for the final compile.
type Invocation struct {
	origArgv     []string
	strippedArgv []string

	inputFile  string
	outputFile string

	foundCOpt  bool
	foundSOpt  bool
	foundDebug bool

	hashKey   string // hex fingerprint
	entryPath string // <cache>/<h>/<rest>
}

func (inv *Invocation) OrigArgv() []string {
	return inv.origArgv
}

// uncacheableError carries the stats counter to bump before falling through.
type uncacheableError struct {
	kind storage.StatKind
	msg  string
}

func (e *uncacheableError) Error() string {
	return e.msg
}

// options that consume the following argument; they influence compilation
// only through the preprocessor output, see argument hashing
var twoSlotOptions = []string{"-I", "-include", "-L", "-D", "-isystem"}

func isTwoSlotOption(arg string) bool {
	for _, opt := range twoSlotOptions {
		if arg == opt {
			return true
		}
	}
	return false
}

// ParseCmdLine classifies origArgv positionally into the stripped argv, the
// single input file and the output file, or decides the invocation cannot be
// cached at all.
func (inv *Invocation) ParseCmdLine() error {
	argv := inv.origArgv
	inv.strippedArgv = make([]string, 0, len(argv))
	inv.strippedArgv = append(inv.strippedArgv, argv[0])

	for i := 1; i < len(argv); i++ {
		arg := argv[i]

		// some options will never work ...
		if arg == "-E" || strings.HasPrefix(arg, "-M") {
			return &uncacheableError{storage.StatPreprocessor, "preprocessor-only mode " + arg}
		}

		// we must have -c
		if arg == "-c" {
			inv.strippedArgv = append(inv.strippedArgv, arg)
			inv.foundCOpt = true
			continue
		}

		// -S changes the default output extension
		if arg == "-S" {
			inv.strippedArgv = append(inv.strippedArgv, arg)
			inv.foundSOpt = true
			continue
		}

		// work out where the output was meant to go; -o is withheld here and
		// re-added later pointing at a temp path
		if arg == "-o" {
			if i == len(argv)-1 {
				return &uncacheableError{storage.StatArgs, "missing argument to " + arg}
			}
			inv.outputFile = argv[i+1]
			i++
			continue
		}

		// debugging is handled specially: with -g the preprocessor line
		// markers must stay in the fingerprint
		if strings.HasPrefix(arg, "-g") {
			inv.strippedArgv = append(inv.strippedArgv, arg)
			if arg != "-g0" {
				inv.foundDebug = true
			}
			continue
		}

		if isTwoSlotOption(arg) {
			if i == len(argv)-1 {
				return &uncacheableError{storage.StatArgs, "missing argument to " + arg}
			}
			inv.strippedArgv = append(inv.strippedArgv, arg, argv[i+1])
			i++
			continue
		}

		// other options
		if strings.HasPrefix(arg, "-") {
			inv.strippedArgv = append(inv.strippedArgv, arg)
			continue
		}

		// an argument that isn't a plain file is assumed to be an option,
		// not an input file; this copes with unusual compiler flags
		if st, err := os.Stat(arg); err != nil || !st.Mode().IsRegular() {
			inv.strippedArgv = append(inv.strippedArgv, arg)
			continue
		}

		if inv.inputFile != "" {
			return &uncacheableError{storage.StatLink,
				fmt.Sprintf("multiple input files (%s and %s)", inv.inputFile, arg)}
		}
		inv.inputFile = arg
		inv.strippedArgv = append(inv.strippedArgv, arg)
	}

	if inv.inputFile == "" {
		return &uncacheableError{storage.StatArgs, "no input file found"}
	}
	if !inv.foundCOpt {
		return &uncacheableError{storage.StatLink, "no -c option found for " + inv.inputFile}
	}

	if inv.outputFile == "" {
		outputFile, err := deriveOutputFile(inv.inputFile, inv.foundSOpt)
		if err != nil {
			return &uncacheableError{storage.StatArgs, err.Error()}
		}
		inv.outputFile = outputFile
	}
	return nil
}

// deriveOutputFile mirrors the compiler's own default: the input's basename
// with the extension replaced, placed in the current directory.
func deriveOutputFile(inputFile string, foundSOpt bool) (string, error) {
	base := filepath.Base(inputFile)
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return "", fmt.Errorf("badly formed output file for input %s", inputFile)
	}
	if foundSOpt {
		return base[:dot+1] + "s", nil
	}
	return base[:dot+1] + "o", nil
}
