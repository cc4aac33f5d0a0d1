// Package integration runs the mwpipe binary as a child process so the
// suite can exercise it over real HTTP.
package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"
)

const (
	defaultPort = "18080"
	healthPath  = "/health"

	// APIKey is the only key the integration server accepts. Its client
	// name is "integration".
	APIKey = "sk-integration-test"
)

// App is a running mwpipe process.
type App struct {
	BaseURL string

	cmd    *exec.Cmd
	tmpDir string
}

// StartApp builds ./cmd/mwpipe into a temporary directory, starts it with
// test configuration and waits until /health answers. The port comes from
// INTEGRATION_PORT, defaulting to 18080. Call Stop when done.
func StartApp(ctx context.Context) (*App, error) {
	repoRoot, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "mwpipe-integration-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	binaryPath := filepath.Join(tmpDir, "mwpipe")
	if runtime.GOOS == "windows" {
		binaryPath += ".exe"
	}

	build := exec.CommandContext(ctx, "go", "build", "-o", binaryPath, "./cmd/mwpipe")
	build.Dir = repoRoot
	if out, err := build.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("build binary: %w\n%s", err, out)
	}

	port := os.Getenv("INTEGRATION_PORT")
	if port == "" {
		port = defaultPort
	}

	cmd := exec.Command(binaryPath)
	cmd.Dir = tmpDir
	cmd.Env = append(os.Environ(),
		"MWPIPE_HOST=127.0.0.1",
		"MWPIPE_PORT="+port,
		"MWPIPE_API_KEYS="+APIKey+" integration",
		"MWPIPE_LOG_LEVEL=warn",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("start app: %w", err)
	}

	app := &App{BaseURL: "http://127.0.0.1:" + port, cmd: cmd, tmpDir: tmpDir}

	waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := waitForHealth(waitCtx, app.BaseURL); err != nil {
		app.Stop()
		return nil, fmt.Errorf("wait for health: %w", err)
	}
	return app, nil
}

// Stop asks the process to shut down gracefully, kills it if it has not
// exited after five seconds, and removes the built binary.
func (a *App) Stop() {
	defer os.RemoveAll(a.tmpDir)

	done := make(chan struct{})
	go func() {
		_, _ = a.cmd.Process.Wait()
		close(done)
	}()

	if err := a.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		_ = a.cmd.Process.Kill()
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = a.cmd.Process.Kill()
		<-done
	}
}

func findRepoRoot() (string, error) {
	if root := os.Getenv("INTEGRATION_REPO_ROOT"); root != "" {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	startDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", startDir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
