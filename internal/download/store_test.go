package download

import (
	"path/filepath"
	"testing"
)

func TestReadinessRoundTrip(t *testing.T) {
	store := NewReadinessStore(t.TempDir())

	if store.IsReady("CLIP-ViT-B-32") {
		t.Fatalf("model should not be ready before marking")
	}

	if err := store.MarkReady("CLIP-ViT-B-32"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.IsReady("CLIP-ViT-B-32") {
		t.Fatalf("model should be ready after marking")
	}

	// repeated writes are harmless no-ops
	if err := store.MarkReady("CLIP-ViT-B-32"); err != nil {
		t.Fatalf("unexpected error on repeated mark: %v", err)
	}
	if !store.IsReady("CLIP-ViT-B-32") {
		t.Fatalf("model should stay ready")
	}

	if store.IsReady("YOLOv8n") {
		t.Fatalf("unrelated model should not be ready")
	}
}

func TestModelDirLayout(t *testing.T) {
	root := t.TempDir()
	store := NewReadinessStore(root)

	if got, want := store.ModelDir("MobileCLIP"), filepath.Join(root, "MobileCLIP"); got != want {
		t.Fatalf("expected model dir %q, got %q", want, got)
	}
}
