package main

// Notes:
// - Shared test infrastructure: converter and pool mocks plus an Environment
//   backed by buffers and a map of environment variables.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	md2img "github.com/alnah/go-md2img"
)

// ---------------------------------------------------------------------------
// Mock Implementations - For unit testing
// ---------------------------------------------------------------------------

// mockConverter records its inputs and returns a fixed image.
type mockConverter struct {
	mu     sync.Mutex
	err    error
	inputs []md2img.Input
	closed bool
}

func (m *mockConverter) Convert(_ context.Context, input md2img.Input) (*md2img.Result, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &md2img.Result{
		Image:    []byte("PNG:" + input.Markdown),
		MIMEType: "image/png",
		Format:   md2img.FormatPNG,
		HTML:     []byte("<p>" + input.Markdown + "</p>"),
	}, nil
}

func (m *mockConverter) ConvertToImage(ctx context.Context, markdown string) (*md2img.Result, error) {
	return m.Convert(ctx, md2img.Input{Markdown: markdown})
}

func (m *mockConverter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConverter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// mockPool lends the same converter to every worker.
type mockPool struct {
	mu         sync.Mutex
	conv       *mockConverter
	size       int
	acquireErr error
	acquired   int
	released   int
	closed     bool
	opts       int
}

func (p *mockPool) Acquire(context.Context) (Converter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *mockPool) Release(Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *mockPool) Size() int { return p.size }

func (p *mockPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// ---------------------------------------------------------------------------
// Test Environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	conv   *mockConverter
	pool   *mockPool
}

// newTestEnv returns an Environment whose converters are mocks and whose
// variables come from vars only.
func newTestEnv(vars map[string]string) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		conv:   &mockConverter{},
	}
	te.pool = &mockPool{conv: te.conv}

	te.Environment = &Environment{
		Now: func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) },
		Getenv: func(k string) string {
			return vars[k]
		},
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Stdin:  strings.NewReader(""),
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewConverter: func(opts ...md2img.Option) (Converter, error) {
			return te.conv, nil
		},
		NewPool: func(size int, opts ...md2img.Option) Pool {
			te.pool.size = size
			te.pool.opts = len(opts)
			return te.pool
		},
	}
	return te
}

func (te *testEnv) withStdin(r io.Reader) *testEnv {
	te.Stdin = r
	return te
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
