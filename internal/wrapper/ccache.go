package wrapper

import (
	"errors"
	"fmt"
	"os"

	"github.com/SigmaG33/ccache/internal/storage"
)

// Run drives one compilation through the cache: classify the arguments,
// fingerprint via the preprocessor, try the cache, else compile into it and
// re-read. FindCompiler must have been called first. The returned int is the
// process exit code once the result (hit, fresh insert, or the compiler's own
// failure) has been delivered; a non-nil error means caching was abandoned
// and the caller must exec the real compiler.
func (inv *Invocation) Run(cache *storage.EntryCache, stats *storage.Stats) (int, error) {
	// we might be disabled
	if os.Getenv("CCACHE_DISABLE") != "" {
		logWrapper.Info(1, "ccache is disabled")
		return 0, fmt.Errorf("ccache is disabled")
	}

	if err := inv.ParseCmdLine(); err != nil {
		logWrapper.Info(0, "uncacheable invocation:", err)
		var uncacheable *uncacheableError
		if errors.As(err, &uncacheable) {
			stats.Update(uncacheable.kind)
		}
		return 0, err
	}

	if err := inv.FindHash(cache, stats); err != nil {
		logWrapper.Info(0, "couldn't fingerprint:", err)
		return 0, err
	}

	// if we can return from cache at this point then do
	hit, err := cache.FromCache(inv.entryPath, inv.outputFile, true, stats)
	if err != nil {
		return 0, err
	}
	if hit {
		return 0, nil
	}

	// run the real compiler, sending output to the cache
	status, delivered, err := cache.ToCache(inv.strippedArgv, inv.entryPath, inv.outputFile, stats)
	if err != nil {
		return 0, err
	}
	if delivered {
		return status, nil
	}

	// read back what was just inserted
	hit, err = cache.FromCache(inv.entryPath, inv.outputFile, false, stats)
	if err != nil {
		return 0, err
	}
	if hit {
		return 0, nil
	}

	// getting here means the insert succeeded but the entry can't be read back
	logWrapper.Error("secondary cache retrieval failed for", inv.outputFile)
	stats.Update(storage.StatError)
	return 0, fmt.Errorf("secondary cache retrieval failed")
}
