package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/SigmaG33/ccache/internal/common"
	"github.com/SigmaG33/ccache/internal/storage"
)

// attached spellings whose text must not influence the fingerprint
var attachedPathOptions = []string{"-I", "-L", "-D", "-isystem"}

func isAttachedPathOption(arg string) bool {
	for _, opt := range attachedPathOptions {
		if strings.HasPrefix(arg, opt) {
			return true
		}
	}
	return false
}

// FindHash derives the fingerprint of this compilation: the hash-eligible
// arguments, the compiler driver's size and mtime, and the preprocessed
// source. Include paths, library paths and macro definitions are excluded
// from the argument hash — if they matter at all, they change the
// preprocessor output; excluding their text makes the cache robust to
// cosmetic path differences. On success, entryPath and the shard stats
// binding are set.
func (inv *Invocation) FindHash(cache *storage.EntryCache, stats *storage.Stats) error {
	hasher := common.MakeHasher()

	args := inv.strippedArgv
	for i := 0; i < len(args); i++ {
		if i < len(args)-1 && isTwoSlotOption(args[i]) {
			i++
			continue
		}
		if isAttachedPathOption(args[i]) {
			continue
		}
		hasher.String(args[i])
	}

	// the compiler driver's size and date: a simple-minded way to detect
	// compiler upgrades, not 100% reliable
	st, err := os.Stat(args[0])
	if err != nil {
		stats.Update(storage.StatCompiler)
		return fmt.Errorf("couldn't stat the compiler %s: %w", args[0], err)
	}
	hasher.Int(st.Size())
	hasher.Int(st.ModTime().Unix())

	pathStdout := cache.TmpFileName("stdout")
	pathStderr := cache.TmpFileName("stderr")
	defer func() {
		_ = os.Remove(pathStdout)
		_ = os.Remove(pathStderr)
	}()

	preprocessArgv := make([]string, 0, len(args)+1)
	preprocessArgv = append(preprocessArgv, args...)
	preprocessArgv = append(preprocessArgv, "-E")

	status, err := common.Execute(preprocessArgv, pathStdout, pathStderr)
	if err != nil || status != 0 {
		logWrapper.Info(0, "the preprocessor gave", status, err)
		stats.Update(storage.StatPreprocessor)
		return fmt.Errorf("preprocessor failed with status %d", status)
	}

	// with -g the whole preprocessor output matters, line numbers included;
	// without it, line markers are elided so that reformatting and header
	// relocation don't defeat the cache
	if inv.foundDebug {
		err = hasher.File(pathStdout)
	} else {
		err = hashPreprocessedStrippingLineMarkers(hasher, pathStdout)
	}
	if err != nil {
		stats.Update(storage.StatPreprocessor)
		return err
	}
	// warnings that will be replayed on a hit must affect identity
	if err := hasher.File(pathStderr); err != nil {
		stats.Update(storage.StatPreprocessor)
		return err
	}

	sum := hasher.ResultHex()

	// a single-level shard keeps directories narrow on filesystems that are
	// slow for large directories
	shardDir := filepath.Join(cache.Dir(), sum[:1])
	entryPath := filepath.Join(shardDir, sum[1:])
	if err := common.MkdirForFile(entryPath); err != nil {
		return fmt.Errorf("failed to create %s: %w", shardDir, err)
	}

	logWrapper.TmpDebug("fingerprint", sum, "for", inv.inputFile)
	inv.hashKey = sum
	inv.entryPath = entryPath
	stats.BindShard(filepath.Join(shardDir, "stats"))
	return nil
}

// hashPreprocessedStrippingLineMarkers hashes a preprocessor output file,
// leaving out lines of the form `# <digits> ...`. The check is strictly
// lexical: other #-led lines (pragmas) are hashed verbatim. The file is
// memory-mapped because single lines over 100 KB occur in the wild and a
// bounded read buffer cannot carry them.
func hashPreprocessedStrippingLineMarkers(hasher *common.Hasher, fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open preprocessor output %s: %w", fileName, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.Size() == 0 {
		return nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return fmt.Errorf("failed to mmap %s: %w", fileName, err)
	}
	defer func() {
		_ = unix.Munmap(data)
	}()

	for start := 0; start < len(data); {
		end := start
		for end < len(data) && data[end] != '\n' {
			end++
		}
		line := data[start:end]
		isLineMarker := len(line) > 2 && line[0] == '#' && line[1] == ' ' &&
			line[2] >= '0' && line[2] <= '9'
		if !isLineMarker {
			if end < len(data) {
				hasher.Buffer(data[start : end+1]) // line incl. '\n'
			} else {
				hasher.Buffer(line)
			}
		}
		start = end + 1
	}
	return nil
}
