package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

const selfName = "ccache"

// FindCompiler locates the real compiler to run: the first executable on
// CCACHE_PATH (else PATH) matching basename(argv[0]) that isn't a symlink
// back to ccache itself. On success, slot 0 of the fall-through argv holds
// the compiler's absolute path. Any failure here means caching is abandoned;
// the caller surfaces it the way a failed exec would.
func (inv *Invocation) FindCompiler(argv []string) error {
	inv.origArgv = make([]string, len(argv))
	copy(inv.origArgv, argv)

	base := filepath.Base(argv[0])

	// we might be invoked like "ccache gcc -c foo.c"
	if base == selfName {
		if len(argv) < 2 {
			return fmt.Errorf("no compiler given")
		}
		inv.origArgv = inv.origArgv[1:]
		base = filepath.Base(argv[1])
	}

	pathList := os.Getenv("CCACHE_PATH")
	if pathList == "" {
		pathList = os.Getenv("PATH")
	}
	if pathList == "" {
		return fmt.Errorf("no PATH variable")
	}

	for _, dir := range strings.Split(pathList, ":") {
		if dir == "" {
			continue
		}
		fname := filepath.Join(dir, base)

		// look for a normal executable file
		if unix.Access(fname, unix.X_OK) != nil {
			continue
		}
		lst, err := os.Lstat(fname)
		if err != nil {
			continue
		}
		st, err := os.Stat(fname)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}

		// if it's a symlink, ensure it doesn't point at something called "ccache"
		if lst.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(fname); err == nil && filepath.Base(target) == selfName {
				continue
			}
		}

		inv.origArgv[0] = fname
		return nil
	}

	return fmt.Errorf("%s: not found on PATH", base)
}
