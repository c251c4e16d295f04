// Package pipeline runs the external processing job and loads its outputs.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Executor runs a command and captures its output.
type Executor interface {
	Execute(ctx context.Context, dir string, argv []string) (stdout, stderr string, err error)
}

// ExecExecutor runs commands as child processes.
type ExecExecutor struct {
	// Env is appended to the parent environment.
	Env []string
}

// DefaultEnv quiets the pipeline's ML dependencies and fixes its output encoding.
var DefaultEnv = []string{"PYTHONIOENCODING=utf-8", "TF_CPP_MIN_LOG_LEVEL=2"}

// Execute runs argv in dir. The process is killed when ctx is done.
func (e ExecExecutor) Execute(ctx context.Context, dir string, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", fmt.Errorf("empty pipeline command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // command comes from configuration
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), e.Env...)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
