package debug

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

// twoRows is a 1x2 image stored bottom-up: red at the bottom, blue on top.
var twoRows = []byte{
	255, 0, 0, 255,
	0, 0, 255, 255,
}

func fixedCapture(dir string) *ScreenshotCapture {
	sc := NewScreenshotCapture(dir, "shot")
	sc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return sc
}

func TestFlipRGBA(t *testing.T) {
	img, err := FlipRGBA(twoRows, 1, 2)
	if err != nil {
		t.Fatalf("FlipRGBA failed: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top pixel: got %v, want blue", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel: got %v, want red", got)
	}

	if _, err := FlipRGBA(twoRows, 2, 2); !errors.Is(err, ErrPixelSize) {
		t.Errorf("expected ErrPixelSize, got %v", err)
	}
}

func TestGenerateFilename(t *testing.T) {
	sc := fixedCapture("out")
	if got := sc.GenerateFilename(); got != filepath.Join("out", "shot_2024-05-06_07-08-09.png") {
		t.Errorf("got %q", got)
	}
	if err := sc.SetFormat("BMP"); err != nil {
		t.Fatalf("SetFormat failed: %v", err)
	}
	if got := sc.GenerateFilename(); filepath.Ext(got) != ".bmp" {
		t.Errorf("expected .bmp extension, got %q", got)
	}
	if err := sc.SetFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sc := fixedCapture(dir)
	if err := sc.SetFormat("bmp"); err != nil {
		t.Fatal(err)
	}

	name, err := sc.CaptureFromPixels(twoRows, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels failed: %v", err)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("screenshot not written: %v", err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decoding screenshot: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 1, 2) {
		t.Errorf("bounds: got %v", img.Bounds())
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if r != 0 || b == 0 {
		t.Errorf("top pixel should be blue, got r=%d b=%d", r, b)
	}
}
