package wrapper

import (
	"os"
	"path/filepath"
	"testing"
)

func writeExecutable(t *testing.T, dir string, name string) string {
	t.Helper()
	fileName := filepath.Join(dir, name)
	if err := os.WriteFile(fileName, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestFindCompilerOnPath(t *testing.T) {
	dir := t.TempDir()
	realCC := writeExecutable(t, dir, "mycc")
	t.Setenv("CCACHE_PATH", dir)

	inv := &Invocation{}
	if err := inv.FindCompiler([]string{"mycc", "-c", "a.c"}); err != nil {
		t.Fatal(err)
	}
	if inv.origArgv[0] != realCC {
		t.Errorf("want argv[0]=%q, got %q", realCC, inv.origArgv[0])
	}
}

func TestFindCompilerSelfNameShift(t *testing.T) {
	dir := t.TempDir()
	realCC := writeExecutable(t, dir, "mycc")
	t.Setenv("CCACHE_PATH", dir)

	inv := &Invocation{}
	if err := inv.FindCompiler([]string{"/usr/bin/ccache", "mycc", "-c", "a.c"}); err != nil {
		t.Fatal(err)
	}
	if len(inv.origArgv) != 3 || inv.origArgv[0] != realCC {
		t.Errorf("self name must be shifted off: got %v", inv.origArgv)
	}
}

func TestFindCompilerSkipsSelfSymlink(t *testing.T) {
	linkDir := t.TempDir()
	realDir := t.TempDir()

	selfBinary := writeExecutable(t, linkDir, "ccache")
	if err := os.Symlink(selfBinary, filepath.Join(linkDir, "gcc")); err != nil {
		t.Fatal(err)
	}
	realCC := writeExecutable(t, realDir, "gcc")

	t.Setenv("CCACHE_PATH", linkDir+":"+realDir)

	inv := &Invocation{}
	if err := inv.FindCompiler([]string{"gcc", "-c", "a.c"}); err != nil {
		t.Fatal(err)
	}
	if inv.origArgv[0] != realCC {
		t.Errorf("the ccache symlink must be skipped: got %q, want %q", inv.origArgv[0], realCC)
	}
}

func TestFindCompilerPrefersCcachePath(t *testing.T) {
	pathDir := t.TempDir()
	ccachePathDir := t.TempDir()
	writeExecutable(t, pathDir, "cc")
	preferred := writeExecutable(t, ccachePathDir, "cc")

	t.Setenv("PATH", pathDir)
	t.Setenv("CCACHE_PATH", ccachePathDir)

	inv := &Invocation{}
	if err := inv.FindCompiler([]string{"cc", "-c", "a.c"}); err != nil {
		t.Fatal(err)
	}
	if inv.origArgv[0] != preferred {
		t.Errorf("CCACHE_PATH must win over PATH: got %q", inv.origArgv[0])
	}
}

func TestFindCompilerNotFound(t *testing.T) {
	t.Setenv("CCACHE_PATH", t.TempDir())
	t.Setenv("PATH", "")

	inv := &Invocation{}
	if err := inv.FindCompiler([]string{"no-such-compiler", "-c", "a.c"}); err == nil {
		t.Errorf("expected an error for an unresolvable compiler")
	}
}
