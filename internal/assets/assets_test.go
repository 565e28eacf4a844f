package assets

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeAtlas(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestLibrary_SearchOrder(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeAtlas(t, low, "palette.png", color.NRGBA{R: 255, A: 255})
	writeAtlas(t, high, "palette.png", color.NRGBA{B: 255, A: 255})

	lib := NewLibrary(low)
	lib.AddSearchPath(high)

	a, err := lib.Atlas("palette.png")
	if err != nil {
		t.Fatalf("Atlas failed: %v", err)
	}
	if c := a.Sample(0, 0); c.B != 1 || c.R != 0 {
		t.Errorf("expected the last added path to win, got %+v", c)
	}
}

func TestLibrary_Cache(t *testing.T) {
	dir := t.TempDir()
	writeAtlas(t, dir, "palette.png", color.NRGBA{G: 255, A: 255})
	lib := NewLibrary(dir)

	a1, err := lib.Atlas("palette.png")
	if err != nil {
		t.Fatalf("Atlas failed: %v", err)
	}
	a2, err := lib.Atlas("palette.png")
	if err != nil {
		t.Fatalf("Atlas failed: %v", err)
	}
	if a1 != a2 {
		t.Error("expected the cached atlas on the second call")
	}
	if hits, misses := lib.Stats(); hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses; want 1, 1", hits, misses)
	}

	lib.Close()
	if hits, misses := lib.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Close should reset stats, got %d, %d", hits, misses)
	}
}

func TestLibrary_DirectPath(t *testing.T) {
	dir := t.TempDir()
	path := writeAtlas(t, dir, "custom.png", color.NRGBA{R: 255, G: 255, A: 255})

	a, err := NewLibrary().Atlas(path)
	if err != nil {
		t.Fatalf("Atlas failed: %v", err)
	}
	if a.Name != path {
		t.Errorf("Name = %q, want %q", a.Name, path)
	}
}

func TestLibrary_NotFound(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	if _, err := lib.Atlas("missing.png"); !errors.Is(err, ErrAtlasNotFound) {
		t.Errorf("got %v, want ErrAtlasNotFound", err)
	}
	if _, err := lib.Atlas(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, ErrAtlasNotFound) {
		t.Errorf("got %v, want ErrAtlasNotFound", err)
	}
}

func TestLibrary_BadImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLibrary(dir).Atlas("broken.png"); err == nil {
		t.Error("expected decode error")
	}
}
