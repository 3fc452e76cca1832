package common

import (
	"os"
	"os/exec"
)

// Execute runs argv with the child's stdout and stderr redirected into files
// (they are inspected and possibly renamed into the cache afterwards).
// The returned int is the child's exit status; err is non-nil only when the
// child could not be started at all.
func Execute(argv []string, stdoutPath string, stderrPath string) (int, error) {
	fStdout, err := os.Create(stdoutPath)
	if err != nil {
		return -1, err
	}
	defer fStdout.Close()

	fStderr, err := os.Create(stderrPath)
	if err != nil {
		return -1, err
	}
	defer fStderr.Close()

	childCommand := exec.Command(argv[0], argv[1:]...)
	childCommand.Stdin = os.Stdin
	childCommand.Stdout = fStdout
	childCommand.Stderr = fStderr

	err = childCommand.Run()
	if childCommand.ProcessState == nil {
		return -1, err
	}
	return childCommand.ProcessState.ExitCode(), nil
}
