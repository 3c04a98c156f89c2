package io

import (
	"context"
	goio "io"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceOpener_RelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aliases.txt"), []byte("P1\tTP53\tsrc\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	o := NewFileSourceOpener(dir)
	rc, err := o.Open(context.Background(), "aliases.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	b, err := goio.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "P1\tTP53\tsrc\n" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestFileSourceOpener_Missing(t *testing.T) {
	o := NewFileSourceOpener(t.TempDir())
	if _, err := o.Open(context.Background(), "nope.txt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileSourceOpener_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := NewFileSourceOpener("")
	if _, err := o.Open(ctx, "/etc/hosts"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
