package commands

import (
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	if err := fn(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestVersion(t *testing.T) {
	out := captureStdout(t, func() error {
		rootCmd.SetArgs([]string{"version"})
		return rootCmd.Execute()
	})
	if !strings.Contains(out, "headbang") {
		t.Fatalf("expected 'headbang', got: %s", out)
	}
}
