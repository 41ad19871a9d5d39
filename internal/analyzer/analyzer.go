// Package analyzer invokes the external checker container over a source
// directory and returns its raw standard output.
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"unitsense/internal/config"
)

// Mount points inside the container. The priors and model files live
// alongside the mounted source directory at the configured relative names.
const (
	mountSrc    = "/src"
	mountPriors = "/priors.json"
	mountModel  = "/model.json"
)

// Invoker caps the number of concurrently running containers. Analyzer runs
// take seconds; rapid saves across documents must not pile up containers.
type Invoker struct {
	sem *semaphore.Weighted
}

func New(maxConcurrent int) *Invoker {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Invoker{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Command builds the argv for one analyzer run over dir.
func Command(dir string, cfg config.Analyzer) []string {
	parent := filepath.Dir(dir)
	return []string{
		"docker", "run", "--rm",
		"-v", dir + ":" + mountSrc + ":ro",
		"-v", filepath.Join(parent, cfg.Priors) + ":" + mountPriors + ":ro",
		"-v", filepath.Join(parent, cfg.Model) + ":" + mountModel + ":ro",
		cfg.Image,
	}
}

// Run executes the analyzer synchronously and returns its stdout. A non-zero
// exit, an I/O error, and a timeout are all invocation failures; stderr and
// the exit code are never parsed.
func (iv *Invoker) Run(ctx context.Context, dir string, cfg config.Analyzer) (string, error) {
	if err := iv.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire analyzer slot: %w", err)
	}
	defer iv.sem.Release(1)

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := Command(dir, cfg)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		// The process is killed on cancellation and timeout; report the
		// context's error so callers can tell abandonment from failure.
		if ctx.Err() != nil {
			return "", fmt.Errorf("analyzer run in %s: %w", dir, ctx.Err())
		}
		return "", fmt.Errorf("analyzer run in %s: %w", dir, err)
	}
	return stdout.String(), nil
}
