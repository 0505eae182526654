package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Minimal valid PNG header so content sniffing sees an image.
var pngBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}

func TestFileResolverPassesThroughDataURIs(t *testing.T) {
	r := NewFileResolver("")
	uri := "data:image/png;base64,aGVsbG8="
	got, err := r.Resolve(context.Background(), uri)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != uri {
		t.Fatalf("Resolve() = %q, want pass-through", got)
	}
}

func TestFileResolverPassesThroughRemoteURLs(t *testing.T) {
	r := NewFileResolver(t.TempDir())
	for _, ref := range []string{
		"https://example.com/photo.jpg",
		"http://example.com/photo.jpg",
		"HTTPS://example.com/upper-scheme.png",
	} {
		got, err := r.Resolve(context.Background(), ref)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", ref, err)
		}
		if got != ref {
			t.Fatalf("Resolve(%q) = %q, want pass-through", ref, got)
		}
	}
}

func TestFileResolverReadsAndEncodesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "photo.png"), pngBytes, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := NewFileResolver(dir)
	got, err := r.Resolve(context.Background(), "photo.png")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	if got != want {
		t.Fatalf("Resolve() = %q, want %q", got, want)
	}
}

func TestFileResolverRejectsTraversal(t *testing.T) {
	r := NewFileResolver(t.TempDir())
	if _, err := r.Resolve(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}

func TestFileResolverRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text contents"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	r := NewFileResolver(dir)
	_, err := r.Resolve(context.Background(), "notes.txt")
	if err == nil || !strings.Contains(err.Error(), "not an image") {
		t.Fatalf("err = %v, want non-image rejection", err)
	}
}

func TestFileResolverMissingFile(t *testing.T) {
	r := NewFileResolver(t.TempDir())
	if _, err := r.Resolve(context.Background(), "absent.jpg"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
