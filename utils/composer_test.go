package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestComposeMessageSubstitutesPlaceholders(t *testing.T) {
	data := map[string]interface{}{"name": "Ana"}

	got := ComposeMessage("Oi {{name}}, bem-vinda ao {{form_name}}", data, "Promo")
	want := "Oi Ana, bem-vinda ao Promo"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestComposeMessageUnknownPlaceholderResolvesEmpty(t *testing.T) {
	got := ComposeMessage("Hello {{unknown}}!", map[string]interface{}{"name": "Ana"}, "Promo")
	if got != "Hello !" {
		t.Fatalf("expected unknown placeholder to resolve empty, got %q", got)
	}
}

func TestComposeMessageMatchesKeysCaseInsensitively(t *testing.T) {
	data := map[string]interface{}{"Cidade": "Recife", "Idade": float64(30)}

	got := ComposeMessage("{{cidade}} / {{IDADE}}", data, "")
	if got != "Recife / 30" {
		t.Fatalf("expected case-insensitive key match, got %q", got)
	}
}

func TestComposeMessageResolvesNameHeuristically(t *testing.T) {
	data := map[string]interface{}{"Nome Completo": "Ana Souza"}

	got := ComposeMessage("Oi {{nome}}", data, "")
	if got != "Oi Ana Souza" {
		t.Fatalf("expected name heuristic to resolve, got %q", got)
	}
}

func TestResolveMediaInlinesLocalUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "brochure.pdf"), []byte("pdf-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	opts := MediaOptions{UploadDir: dir, PublicBaseURL: "https://forms.example.com"}
	payload, err := ResolveMedia("/uploads/brochure.pdf", "application/pdf", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.Inline {
		t.Fatal("expected local upload to be inlined")
	}
	if payload.FileName != "brochure.pdf" {
		t.Fatalf("expected file name brochure.pdf, got %q", payload.FileName)
	}
	if payload.Media == "" || payload.Media == "/uploads/brochure.pdf" {
		t.Fatalf("expected base64 content, got %q", payload.Media)
	}
}

func TestResolveMediaRejectsTraversal(t *testing.T) {
	opts := MediaOptions{UploadDir: t.TempDir(), PublicBaseURL: "https://forms.example.com"}

	payload, err := ResolveMedia("/uploads/../etc/passwd", "", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Inline {
		t.Fatal("expected traversal reference not to be read from disk")
	}
}

func TestResolveMediaRewritesHostRelativeURLs(t *testing.T) {
	opts := MediaOptions{PublicBaseURL: "https://forms.example.com"}

	payload, err := ResolveMedia("/media/banner.png", "image/png", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Media != "https://forms.example.com/media/banner.png" {
		t.Fatalf("expected public rewrite, got %q", payload.Media)
	}
}

func TestResolveMediaRewritesPrivateHosts(t *testing.T) {
	opts := MediaOptions{PublicBaseURL: "https://forms.example.com"}

	payload, err := ResolveMedia("http://localhost:5000/media/banner.png", "image/png", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Media != "https://forms.example.com/media/banner.png" {
		t.Fatalf("expected private host rewrite, got %q", payload.Media)
	}
}

func TestResolveMediaPassesPublicURLsThrough(t *testing.T) {
	opts := MediaOptions{PublicBaseURL: "https://forms.example.com"}

	payload, err := ResolveMedia("https://cdn.example.org/video.mp4", "video/mp4", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Media != "https://cdn.example.org/video.mp4" {
		t.Fatalf("expected passthrough, got %q", payload.Media)
	}
}
