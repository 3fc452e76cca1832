package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/SigmaG33/ccache/internal/common"
)

// EntryCache is the content-addressed on-disk store of compilation results.
// An entry is a pair of files keyed by fingerprint: <dir>/<h>/<rest> holds the
// object (or assembly) artifact and <dir>/<h>/<rest>.stderr the compiler's
// stderr stream to replay on a hit. There is no lock: concurrent invocations
// coordinate through pid-scoped temp names and the atomicity of rename, and
// readers tolerate either file of a pair missing (an evictor may remove
// entries at any time).
type EntryCache struct {
	dir string
}

func MakeEntryCache(cacheDir string) (*EntryCache, error) {
	if err := os.MkdirAll(cacheDir, os.ModePerm); err != nil {
		return nil, err
	}
	return &EntryCache{dir: cacheDir}, nil
}

func (cache *EntryCache) Dir() string {
	return cache.dir
}

// TmpFileName returns <dir>/tmp.<kind>.<pid>; the pid keeps parallel
// invocations from colliding, and cleanup sweeps leftovers of killed ones.
func (cache *EntryCache) TmpFileName(kind string) string {
	return fmt.Sprintf("%s/tmp.%s.%d", cache.dir, kind, os.Getpid())
}

// FromCache tries to deliver a stored compilation result into outputFile.
// It reports a hit (exit 0 for the whole invocation) or a miss; a non-nil
// error means the cache must be abandoned and the real compiler executed.
// first distinguishes the pre-compile lookup (counts a hit) from the
// post-insert verification lookup.
func (cache *EntryCache) FromCache(entryPath string, outputFile string, first bool, stats *Stats) (bool, error) {
	stderrFile := entryPath + ".stderr"
	fdStderr, err := os.Open(stderrFile)
	if err != nil {
		// it isn't in cache ...
		return false, nil
	}

	// make sure the artifact is there too
	if _, err := os.Stat(entryPath); err != nil {
		_ = fdStderr.Close()
		_ = os.Remove(stderrFile)
		return false, nil
	}

	now := time.Now()
	_ = os.Chtimes(stderrFile, now, now) // LRU signal for cleanup

	_ = os.Remove(outputFile)
	err = os.Link(entryPath, outputFile)

	// the artifact might have been deleted by a concurrent evictor
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		logStorage.Info(0, "artifact missing for", outputFile)
		stats.Update(StatMissing)
		_ = fdStderr.Close()
		_ = os.Remove(stderrFile)
		return false, nil
	}

	if err != nil {
		if copyErr := common.CopyFile(entryPath, outputFile); copyErr != nil {
			logStorage.Error("failed to copy", entryPath, "->", outputFile, copyErr)
			stats.Update(StatError)
			_ = fdStderr.Close()
			return false, copyErr
		}
	}

	// update the mtime so that make doesn't get confused
	_ = os.Chtimes(outputFile, now, now)

	_, _ = io.Copy(os.Stderr, fdStderr)
	_ = fdStderr.Close()

	if first {
		logStorage.Info(1, "got cached result for", outputFile)
		stats.Update(StatCached)
	}
	return true, nil
}

// ToCache runs the real compiler and, on success, installs the result as a
// cache entry via two renames. Returns:
//   - delivered=true with the compiler's exit status when compilation failed
//     and the partial result plus stderr were already handed to the user;
//   - delivered=false and err=nil when the entry was inserted (the caller
//     re-reads it with FromCache);
//   - a non-nil err when caching must be abandoned.
func (cache *EntryCache) ToCache(strippedArgv []string, entryPath string, outputFile string, stats *Stats) (int, bool, error) {
	tmpStdout := cache.TmpFileName("stdout")
	tmpStderr := cache.TmpFileName("stderr")
	tmpObj := cache.TmpFileName("hash") + ".o"

	compileArgv := make([]string, 0, len(strippedArgv)+2)
	compileArgv = append(compileArgv, strippedArgv...)
	compileArgv = append(compileArgv, "-o", tmpObj)

	status, err := common.Execute(compileArgv, tmpStdout, tmpStderr)
	if err != nil {
		logStorage.Error("couldn't launch the compiler", compileArgv[0], err)
		stats.Update(StatError)
		removeAll(tmpStdout, tmpStderr, tmpObj)
		return 0, false, err
	}

	// the compiler must not write to stdout with -c; if it did, don't cache,
	// rerun for real so the user sees the same output
	if st, err := os.Stat(tmpStdout); err != nil || st.Size() != 0 {
		logStorage.Info(0, "compiler produced stdout for", outputFile)
		stats.Update(StatStdout)
		removeAll(tmpStdout, tmpStderr, tmpObj)
		return 0, false, fmt.Errorf("compiler produced stdout")
	}
	_ = os.Remove(tmpStdout)

	if status != 0 {
		logStorage.Info(0, "compile of", outputFile, "gave status =", status)
		stats.Update(StatStatus)

		fdStderr, errOpen := os.Open(tmpStderr)
		if errOpen == nil {
			renameErr := os.Rename(tmpObj, outputFile)
			if renameErr == nil || errors.Is(renameErr, fs.ErrNotExist) {
				// best-effort delivery of the failed state, same as without ccache
				_, _ = io.Copy(os.Stderr, fdStderr)
				_ = fdStderr.Close()
				_ = os.Remove(tmpStderr)
				return status, true, nil
			}
			_ = fdStderr.Close()
		}

		removeAll(tmpStderr, tmpObj)
		return 0, false, fmt.Errorf("couldn't deliver failed compile result")
	}

	if os.Rename(tmpObj, entryPath) != nil ||
		os.Rename(tmpStderr, entryPath+".stderr") != nil {
		logStorage.Error("failed to rename tmp files into", entryPath)
		stats.Update(StatError)
		removeAll(tmpStderr, tmpObj)
		return 0, false, fmt.Errorf("failed to rename tmp files")
	}

	logStorage.Info(1, "placed", outputFile, "into cache")
	stats.ToCache(common.FileSize(entryPath) + common.FileSize(entryPath+".stderr"))
	return 0, false, nil
}

func removeAll(fileNames ...string) {
	for _, fileName := range fileNames {
		_ = os.Remove(fileName)
	}
}
