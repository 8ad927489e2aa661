//go:build e2e

package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

// ServerProcess manages a dittoapi subprocess for E2E testing.
type ServerProcess struct {
	cmd           *exec.Cmd
	port          int
	logFile       string
	configFile    string
	logFileHandle *os.File

	waitOnce sync.Once
	waitErr  error
	done     chan struct{}
}

// ServerOptions selects what the generated config contains.
type ServerOptions struct {
	// Environment is server.environment. Default: development.
	Environment string

	// APIPrefix is server.apiPrefix. Default: /api/v1.
	APIPrefix string

	// Database is the raw YAML body of the database section. Default: a
	// SQLite file in the test's temp dir.
	Database string
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// FindFreePort finds an available TCP port by binding to :0 and reading the assigned port.
func FindFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer func() { _ = listener.Close() }()

	return listener.Addr().(*net.TCPAddr).Port
}

// StartServerProcess starts dittoapi and waits until /health answers.
func StartServerProcess(t *testing.T, opts ServerOptions) *ServerProcess {
	t.Helper()

	sp := LaunchServerProcess(t, opts)
	if err := sp.WaitReady(10 * time.Second); err != nil {
		sp.DumpLogs(t)
		sp.ForceKill()
		t.Fatalf("Server failed to become ready: %v", err)
	}
	return sp
}

// LaunchServerProcess starts dittoapi without waiting for it to listen.
func LaunchServerProcess(t *testing.T, opts ServerOptions) *ServerProcess {
	t.Helper()

	stateDir := t.TempDir()
	port := FindFreePort(t)
	configFile := writeConfig(t, stateDir, port, opts)
	logFile := filepath.Join(stateDir, "dittoapi.log")

	cmd := exec.Command(findBinary(t), "--config", configFile)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+stateDir)

	logFileHandle, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("Failed to create log file: %v", err)
	}
	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle

	if err := cmd.Start(); err != nil {
		_ = logFileHandle.Close()
		t.Fatalf("Failed to start dittoapi: %v", err)
	}

	sp := &ServerProcess{
		cmd:           cmd,
		port:          port,
		logFile:       logFile,
		configFile:    configFile,
		logFileHandle: logFileHandle,
		done:          make(chan struct{}),
	}
	go sp.wait()
	t.Cleanup(sp.ForceKill)
	return sp
}

func (sp *ServerProcess) wait() {
	sp.waitOnce.Do(func() {
		sp.waitErr = sp.cmd.Wait()
		_ = sp.logFileHandle.Close()
		close(sp.done)
	})
}

// WaitReady polls /health until it returns 200 or timeout elapses.
func (sp *ServerProcess) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 500 * time.Millisecond}

	var lastErr error
	for time.Now().Before(deadline) {
		select {
		case <-sp.done:
			return fmt.Errorf("server exited with code %d", sp.cmd.ProcessState.ExitCode())
		default:
		}

		resp, err := client.Get(sp.URL("/health"))
		if err != nil {
			lastErr = err
			time.Sleep(100 * time.Millisecond)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("health check returned %d: %s", resp.StatusCode, string(body))
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not healthy after %v: %w", timeout, lastErr)
}

// CheckHealth performs a GET /health and parses the response.
func (sp *ServerProcess) CheckHealth() (*HealthResponse, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(sp.URL("/health"))
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// SendSignal sends a signal to the server process.
func (sp *ServerProcess) SendSignal(sig syscall.Signal) error {
	return sp.cmd.Process.Signal(sig)
}

// WaitForExit waits for the process to exit and returns its exit code.
func (sp *ServerProcess) WaitForExit(timeout time.Duration) (int, error) {
	select {
	case <-sp.done:
		var exitErr *exec.ExitError
		if sp.waitErr != nil && !errors.As(sp.waitErr, &exitErr) {
			return -1, sp.waitErr
		}
		return sp.cmd.ProcessState.ExitCode(), nil
	case <-time.After(timeout):
		return -1, fmt.Errorf("process did not exit within %v", timeout)
	}
}

// Stop sends sig and returns the exit code.
func (sp *ServerProcess) Stop(sig syscall.Signal) (int, error) {
	if err := sp.SendSignal(sig); err != nil {
		return -1, fmt.Errorf("failed to send %v: %w", sig, err)
	}
	return sp.WaitForExit(10 * time.Second)
}

// ForceKill terminates the server process, SIGTERM first and SIGKILL after
// two seconds.
func (sp *ServerProcess) ForceKill() {
	select {
	case <-sp.done:
		return
	default:
	}

	_ = sp.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-sp.done:
	case <-time.After(2 * time.Second):
		_ = sp.cmd.Process.Kill()
		<-sp.done
	}
}

// Port returns the configured server port.
func (sp *ServerProcess) Port() int {
	return sp.port
}

// URL returns the absolute URL of path on the server.
func (sp *ServerProcess) URL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", sp.port, path)
}

// ConfigFile returns the path of the generated config file.
func (sp *ServerProcess) ConfigFile() string {
	return sp.configFile
}

// Logs returns everything the server has written so far.
func (sp *ServerProcess) Logs(t *testing.T) string {
	t.Helper()

	content, err := os.ReadFile(sp.logFile)
	if err != nil {
		t.Fatalf("Could not read log file: %v", err)
	}
	return string(content)
}

// DumpLogs prints the log file contents to help debug failures.
func (sp *ServerProcess) DumpLogs(t *testing.T) {
	t.Helper()

	content, err := os.ReadFile(sp.logFile)
	if err != nil {
		t.Logf("Could not read log file: %v", err)
		return
	}
	t.Logf("Server logs:\n%s", string(content))
}

func writeConfig(t *testing.T, dir string, port int, opts ServerOptions) string {
	t.Helper()

	if opts.Environment == "" {
		opts.Environment = "development"
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}
	if opts.Database == "" {
		opts.Database = fmt.Sprintf("  type: sqlite\n  sqlite:\n    path: %q\n", filepath.Join(dir, "dittoapi.db"))
	}

	content := fmt.Sprintf(`# Test configuration generated by e2e test
server:
  port: %d
  apiPrefix: %q
  environment: %s

logging:
  level: INFO
  format: text
  output: stdout

database:
%s`, port, opts.APIPrefix, opts.Environment, opts.Database)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

var (
	buildOnce   sync.Once
	buildPath   string
	buildOutput []byte
	buildErr    error
)

// findBinary locates the dittoapi binary, building it once if necessary.
func findBinary(t *testing.T) string {
	t.Helper()

	if path, err := exec.LookPath("dittoapi"); err == nil {
		return path
	}

	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "dittoapi-e2e-")
		if err != nil {
			buildErr = err
			return
		}
		buildPath = filepath.Join(dir, "dittoapi")
		cmd := exec.Command("go", "build", "-o", buildPath, "./cmd/dittoapi/")
		cmd.Dir = findProjectRoot(t)
		buildOutput, buildErr = cmd.CombinedOutput()
	})
	if buildErr != nil {
		t.Fatalf("Failed to build dittoapi: %v\n%s", buildErr, buildOutput)
	}
	return buildPath
}

// findProjectRoot locates the project root by looking for go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("Could not find project root (go.mod not found)")
		}
		dir = parent
	}
}
