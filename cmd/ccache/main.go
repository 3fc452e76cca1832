package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SigmaG33/ccache/internal/common"
	"github.com/SigmaG33/ccache/internal/storage"
	"github.com/SigmaG33/ccache/internal/wrapper"
)

func main() {
	config, err := ParseConfiguration()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "ccache: bad configuration:", err)
		os.Exit(1)
	}

	// we might be invoked under our own name ("ccache gcc ..." or "ccache -s"),
	// or as a compiler via a symlink
	if filepath.Base(os.Args[0]) == "ccache" {
		if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
			adminMain(config)
			return
		}
	}
	compileMain(config)
}

// adminMain serves `ccache -s` and friends: everything that manages the cache
// directory rather than compiling.
func adminMain(config *Configuration) {
	showStats := common.CmdEnvBool("Show statistics summary.", false,
		"s", "")
	zeroStats := common.CmdEnvBool("Zero statistics counters.", false,
		"z", "")
	runCleanup := common.CmdEnvBool("Run a cache cleanup.", false,
		"c", "")
	maxFiles := common.CmdEnvInt("Set maximum number of files in the cache.", -1,
		"F", "")
	maxSize := common.CmdEnvString("Set maximum size of the cache (use G, M or K).", "",
		"M", "")
	showVersion := common.CmdEnvBool("Print version number.", false,
		"V", "")
	cacheDir := common.CmdEnvString("Cache directory.", config.CacheDir,
		"", "CCACHE_DIR")
	logFileName := common.CmdEnvString("Log sink: a file path, 'stderr' or 'journal'.", config.LogFileName,
		"", "CCACHE_LOGFILE")

	common.ParseCmdFlagsCombiningWithEnv()

	if *showVersion {
		fmt.Println("ccache version", common.GetVersion())
		os.Exit(0)
	}

	_ = storage.MakeLoggerStorage(*logFileName, config.LogLevel)
	if err := os.MkdirAll(*cacheDir, os.ModePerm); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ccache: failed to create %s (%v)\n", *cacheDir, err)
		os.Exit(1)
	}
	stats := storage.MakeStats(*cacheDir)

	didSomething := false
	if *maxFiles >= 0 {
		stats.SetLimits(*maxFiles, -1)
		fmt.Printf("Set cache file limit to %d\n", *maxFiles)
		didSomething = true
	}
	if *maxSize != "" {
		kb, err := parseSizeToKb(*maxSize)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "ccache:", err)
			os.Exit(1)
		}
		stats.SetLimits(-1, kb)
		fmt.Printf("Set cache size limit to %d kB\n", kb)
		didSomething = true
	}
	if *zeroStats {
		stats.Zero()
		fmt.Println("Statistics cleared")
		didSomething = true
	}
	if *runCleanup {
		// a cache that was never given limits explicitly falls back to the
		// configuration file ones
		if mf, mk := stats.ReadLimits(); mf == 0 && mk == 0 && (config.MaxFiles > 0 || config.MaxSizeKb > 0) {
			stats.SetLimits(config.MaxFiles, config.MaxSizeKb)
		}
		if err := storage.CleanupAll(*cacheDir, stats); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "ccache: cleanup:", err)
			os.Exit(1)
		}
		fmt.Println("Cleaned cache")
		didSomething = true
	}
	if *showStats {
		stats.Summary()
		didSomething = true
	}

	if !didSomething {
		flag.Usage()
		os.Exit(1)
	}
}

// parseSizeToKb understands "500K", "10M", "2G"; a bare number means kbytes.
func parseSizeToKb(value string) (int64, error) {
	multiplier := int64(1)
	numPart := value
	switch value[len(value)-1] {
	case 'G', 'g':
		multiplier = 1024 * 1024
		numPart = value[:len(value)-1]
	case 'M', 'm':
		multiplier = 1024
		numPart = value[:len(value)-1]
	case 'K', 'k':
		numPart = value[:len(value)-1]
	}
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad size value %q", value)
	}
	return n * multiplier, nil
}

// compileMain wraps one real compiler invocation. Whatever goes wrong, the
// worst case is always "behave as if ccache were never invoked".
func compileMain(config *Configuration) {
	cacheDir := os.Getenv("CCACHE_DIR")
	if cacheDir == "" {
		cacheDir = config.CacheDir
	}
	logFileName := os.Getenv("CCACHE_LOGFILE")
	if logFileName == "" {
		logFileName = config.LogFileName
	}

	// an unopenable log file must not break the build; stay silent instead
	_ = wrapper.MakeLoggerWrapper(logFileName, config.LogLevel)
	_ = storage.MakeLoggerStorage(logFileName, config.LogLevel)

	inv := &wrapper.Invocation{}
	if err := inv.FindCompiler(os.Args); err != nil {
		// inability to find the compiler should surface exactly as exec would
		wrapper.Fallback(inv.OrigArgv())
	}

	cache, err := storage.MakeEntryCache(cacheDir)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ccache: failed to create %s (%v)\n", cacheDir, err)
		os.Exit(1)
	}
	stats := storage.MakeStats(cacheDir)

	exitCode, err := inv.Run(cache, stats)
	if err != nil {
		wrapper.Fallback(inv.OrigArgv())
	}
	os.Exit(exitCode)
}
