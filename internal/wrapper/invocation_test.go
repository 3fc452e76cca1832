package wrapper

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeSourceFile(t *testing.T, name string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fileName, []byte("int main(void){return 0;}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestParseCmdLineUncacheable(t *testing.T) {
	src := writeSourceFile(t, "a.c")

	tests := []struct {
		name string
		args []string
	}{
		{"preprocessor only", []string{"cc", "-E", src}},
		{"dep generation", []string{"cc", "-MD", "-c", src}},
		{"dep output", []string{"cc", "-M", src}},
		{"no -c means linking", []string{"cc", src}},
		{"no input file", []string{"cc", "-c"}},
		{"missing -o argument", []string{"cc", "-c", src, "-o"}},
		{"missing -I argument", []string{"cc", "-c", src, "-I"}},
	}

	for _, tt := range tests {
		inv := &Invocation{origArgv: tt.args}
		if err := inv.ParseCmdLine(); err == nil {
			t.Errorf("%s: expected an error for %v", tt.name, tt.args)
		}
	}
}

func TestParseCmdLineMultipleInputs(t *testing.T) {
	src1 := writeSourceFile(t, "a.c")
	src2 := writeSourceFile(t, "b.c")

	inv := &Invocation{origArgv: []string{"cc", "-c", src1, src2}}
	if err := inv.ParseCmdLine(); err == nil {
		t.Errorf("expected an error for two input files")
	}
}

func TestParseCmdLineCapturesOutput(t *testing.T) {
	src := writeSourceFile(t, "a.c")

	inv := &Invocation{origArgv: []string{"cc", "-c", src, "-o", "obj/a.o"}}
	if err := inv.ParseCmdLine(); err != nil {
		t.Fatal(err)
	}
	if inv.outputFile != "obj/a.o" {
		t.Errorf("want output 'obj/a.o', got %q", inv.outputFile)
	}
	if slices.Contains(inv.strippedArgv, "-o") || slices.Contains(inv.strippedArgv, "obj/a.o") {
		t.Errorf("-o must not be forwarded to the stripped argv: %v", inv.strippedArgv)
	}
	if inv.inputFile != src {
		t.Errorf("want input %q, got %q", src, inv.inputFile)
	}
}

func TestParseCmdLineOutputDerivation(t *testing.T) {
	src := writeSourceFile(t, "foo.c")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"cc", "-c", src}, "foo.o"},
		{[]string{"cc", "-c", "-S", src}, "foo.s"},
	}

	for _, tt := range tests {
		inv := &Invocation{origArgv: tt.args}
		if err := inv.ParseCmdLine(); err != nil {
			t.Fatal(err)
		}
		if inv.outputFile != tt.want {
			t.Errorf("want derived output %q, got %q (args %v)", tt.want, inv.outputFile, tt.args)
		}
	}
}

func TestParseCmdLineBadOutputDerivation(t *testing.T) {
	src := writeSourceFile(t, "noext")

	inv := &Invocation{origArgv: []string{"cc", "-c", src}}
	if err := inv.ParseCmdLine(); err == nil {
		t.Errorf("expected an error deriving output from an extensionless input")
	}
}

func TestParseCmdLineDebug(t *testing.T) {
	src := writeSourceFile(t, "a.c")

	tests := []struct {
		debugArg   string
		foundDebug bool
	}{
		{"-g", true},
		{"-ggdb", true},
		{"-g3", true},
		{"-g0", false},
	}

	for _, tt := range tests {
		inv := &Invocation{origArgv: []string{"cc", "-c", tt.debugArg, src}}
		if err := inv.ParseCmdLine(); err != nil {
			t.Fatal(err)
		}
		if inv.foundDebug != tt.foundDebug {
			t.Errorf("%s: want foundDebug=%t, got %t", tt.debugArg, tt.foundDebug, inv.foundDebug)
		}
		if !slices.Contains(inv.strippedArgv, tt.debugArg) {
			t.Errorf("%s must be forwarded", tt.debugArg)
		}
	}
}

func TestParseCmdLineForwardsOptions(t *testing.T) {
	src := writeSourceFile(t, "a.c")

	inv := &Invocation{origArgv: []string{
		"cc", "-c", "-Wall", "-I", "/usr/local/include", "-DNDEBUG", "-isystem", "/opt/inc", src,
	}}
	if err := inv.ParseCmdLine(); err != nil {
		t.Fatal(err)
	}

	for _, arg := range []string{"-Wall", "-I", "/usr/local/include", "-DNDEBUG", "-isystem", "/opt/inc", src} {
		if !slices.Contains(inv.strippedArgv, arg) {
			t.Errorf("%q missing from stripped argv %v", arg, inv.strippedArgv)
		}
	}
}

func TestParseCmdLineNonFileArgTreatedAsOption(t *testing.T) {
	src := writeSourceFile(t, "a.c")

	// an argument that doesn't name an existing regular file is forwarded, not
	// taken as a second input
	inv := &Invocation{origArgv: []string{"cc", "-c", src, "no-such-file.c"}}
	if err := inv.ParseCmdLine(); err != nil {
		t.Fatal(err)
	}
	if inv.inputFile != src {
		t.Errorf("want input %q, got %q", src, inv.inputFile)
	}
	if !slices.Contains(inv.strippedArgv, "no-such-file.c") {
		t.Errorf("non-file argument must be forwarded")
	}
}
