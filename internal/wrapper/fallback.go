package wrapper

import (
	"os"

	"golang.org/x/sys/unix"
)

// Fallback replaces the current process image with the real compiler.
// It is the only legitimate way to give up: the user observes exactly what
// they would have observed without ccache — exit code, signals, file tree.
// Never returns.
func Fallback(origArgv []string) {
	if len(origArgv) > 0 {
		err := unix.Exec(origArgv[0], origArgv, os.Environ())
		logWrapper.Error("execv returned:", err)
	}
	os.Exit(1)
}
