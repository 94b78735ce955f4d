package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// lockedBuffer is a thread-safe bytes.Buffer for capturing process output
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer with mutex protection
func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

// String returns the buffer contents with mutex protection
func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// Record mirrors the JSON lines written by `powermon watch -o json`
type Record struct {
	Session    string   `json:"session"`
	Sequence   uint64   `json:"sequence"`
	Target     string   `json:"target"`
	Found      bool     `json:"found"`
	CPUPercent *float64 `json:"cpu_percent"`
	Watts      *float64 `json:"watts"`
	Error      string   `json:"error"`
	Fatal      bool     `json:"fatal"`
}

// binary resolves the powermon executable, skipping the test when it is not installed
func binary(t *testing.T) string {
	t.Helper()

	bin := os.Getenv("POWERMON_BIN")
	if bin == "" {
		bin = "powermon"
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		t.Skipf("powermon binary not found (%v), set POWERMON_BIN", err)
	}

	return path
}

// Runner manages a powermon process for e2e tests
type Runner struct {
	t       *testing.T
	bin     string
	cmd     *exec.Cmd
	stdout  *lockedBuffer
	stderr  *lockedBuffer
	workDir string
}

// NewRunner creates a runner working in a fresh temporary directory
func NewRunner(t *testing.T) *Runner {
	t.Helper()

	return &Runner{
		t:       t,
		bin:     binary(t),
		workDir: t.TempDir(),
		stdout:  &lockedBuffer{},
		stderr:  &lockedBuffer{},
	}
}

// Start launches powermon with the given arguments
func (r *Runner) Start(args ...string) error {
	r.cmd = exec.Command(r.bin, args...)
	r.cmd.Dir = r.workDir
	r.cmd.Stdout = r.stdout
	r.cmd.Stderr = r.stderr

	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start powermon: %w", err)
	}

	return nil
}

// Run executes powermon to completion and returns its exit code
func (r *Runner) Run(args ...string) int {
	r.t.Helper()

	if err := r.Start(args...); err != nil {
		r.t.Fatal(err)
	}

	_ = r.cmd.Wait()

	return r.ExitCode()
}

// Stop sends SIGTERM and waits for graceful shutdown
func (r *Runner) Stop() error {
	if r.cmd == nil || r.cmd.Process == nil || r.cmd.ProcessState != nil {
		return nil
	}

	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	done := make(chan error, 1)

	go func() {
		done <- r.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(10 * time.Second):
		r.cmd.Process.Kill()
		<-done

		return fmt.Errorf("process did not exit gracefully, killed")
	}
}

// WaitForRecord blocks until a JSON line on stdout satisfies match or timeout
func (r *Runner) WaitForRecord(match func(Record) bool, timeout time.Duration) (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Record{}, fmt.Errorf("timeout waiting for record\nOutput:\n%s\nStderr:\n%s", r.Output(), r.Stderr())
		case <-ticker.C:
			for _, rec := range r.Records() {
				if match(rec) {
					return rec, nil
				}
			}
		}
	}
}

// Records parses every complete JSON line written so far
func (r *Runner) Records() []Record {
	var records []Record

	scanner := bufio.NewScanner(strings.NewReader(r.Output()))
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			records = append(records, rec)
		}
	}

	return records
}

// Output returns current stdout content
func (r *Runner) Output() string {
	return r.stdout.String()
}

// Stderr returns current stderr content
func (r *Runner) Stderr() string {
	return r.stderr.String()
}

// ExitCode returns process exit code (after Stop)
func (r *Runner) ExitCode() int {
	if r.cmd == nil || r.cmd.ProcessState == nil {
		return -1
	}

	return r.cmd.ProcessState.ExitCode()
}

// Target is a copy of /bin/sleep running under a unique name
type Target struct {
	Name string
	cmd  *exec.Cmd
}

// NewTarget copies sleep into a temporary directory under a name no other process uses
func NewTarget(t *testing.T) *Target {
	t.Helper()

	src, err := exec.LookPath("sleep")
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}

	name := fmt.Sprintf("pm%d", time.Now().UnixNano()%1_000_000_000)
	dst := filepath.Join(t.TempDir(), name)

	if err := copyExecutable(src, dst); err != nil {
		t.Fatalf("failed to copy %s: %v", src, err)
	}

	return &Target{Name: name, cmd: exec.Command(dst, "60")}
}

// Start launches the target process
func (p *Target) Start() error {
	return p.cmd.Start()
}

// Stop kills the target process
func (p *Target) Stop() {
	if p.cmd.Process == nil {
		return
	}

	p.cmd.Process.Kill()
	p.cmd.Wait()
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
