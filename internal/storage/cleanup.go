package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// temp files of killed invocations are leaked by design; anything this old is garbage
const tmpSweepAge = 24 * time.Hour

type cacheEntry struct {
	base  string // entry path without the .stderr suffix
	mtime time.Time
	size  int64
}

// CleanupAll enforces the configured cache limits (see Stats.SetLimits):
// per shard, entries are deleted oldest-mtime-first until both the file-count
// and byte-size limits hold. An artifact and its .stderr count as one entry
// and are deleted together. Stale tmp.* files under the root are swept too.
// Runs independently of any compile invocation; in-flight readers already
// tolerate entries disappearing under them.
func CleanupAll(rootDir string, stats *Stats) error {
	maxFiles, maxKb := stats.ReadLimits()

	perShardFiles := maxFiles / 16
	if maxFiles > 0 && perShardFiles == 0 {
		perShardFiles = 1
	}
	perShardBytes := maxKb * 1024 / 16
	if maxKb > 0 && perShardBytes == 0 {
		perShardBytes = 1024
	}

	var eg errgroup.Group
	for _, shard := range shardNames() {
		shardDir := filepath.Join(rootDir, shard)
		eg.Go(func() error {
			return cleanupShard(shardDir, perShardFiles, perShardBytes, stats)
		})
	}

	sweepTmpFiles(rootDir)
	return eg.Wait()
}

func cleanupShard(shardDir string, maxEntries int64, maxBytes int64, stats *Stats) error {
	dirEntries, err := os.ReadDir(shardDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	byBase := make(map[string]*cacheEntry, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if name == "stats" || strings.HasPrefix(name, "tmp.") || de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}

		base := strings.TrimSuffix(name, ".stderr")
		entry := byBase[base]
		if entry == nil {
			entry = &cacheEntry{base: base}
			byBase[base] = entry
		}
		entry.size += info.Size()
		if info.ModTime().After(entry.mtime) {
			entry.mtime = info.ModTime()
		}
	}

	entries := make([]*cacheEntry, 0, len(byBase))
	var totalBytes int64
	for _, entry := range byBase {
		entries = append(entries, entry)
		totalBytes += entry.size
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mtime.Before(entries[j].mtime)
	})

	deleted := 0
	for _, entry := range entries {
		overFiles := maxEntries > 0 && int64(len(entries)-deleted) > maxEntries
		overBytes := maxBytes > 0 && totalBytes > maxBytes
		if !overFiles && !overBytes {
			break
		}
		_ = os.Remove(filepath.Join(shardDir, entry.base))
		_ = os.Remove(filepath.Join(shardDir, entry.base+".stderr"))
		totalBytes -= entry.size
		deleted++
	}

	if deleted > 0 {
		logStorage.Info(0, "cleaned", deleted, "entries from", shardDir)
	}
	stats.SetShardUsage(filepath.Join(shardDir, "stats"), int64(len(entries)-deleted), (totalBytes+1023)/1024)
	return nil
}

func sweepTmpFiles(rootDir string) {
	dirEntries, err := os.ReadDir(rootDir)
	if err != nil {
		return
	}
	for _, de := range dirEntries {
		if !strings.HasPrefix(de.Name(), "tmp.") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > tmpSweepAge {
			_ = os.Remove(filepath.Join(rootDir, de.Name()))
		}
	}
}
