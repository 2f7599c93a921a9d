package media

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImage creates a gradient test image and saves it to the given path
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}

	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"Small JPEG", 100, 100, "jpeg"},
		{"Small PNG", 200, 150, "png"},
		{"Wide image", 640, 360, "jpeg"},
		{"Tall image", 360, 640, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, filename, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(filename)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if dims.Width != tt.width {
				t.Errorf("Width = %d, want %d", dims.Width, tt.width)
			}
			if dims.Height != tt.height {
				t.Errorf("Height = %d, want %d", dims.Height, tt.height)
			}
		})
	}
}

func TestGetImageDimensions_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(tmpDir, "missing.jpg")); err == nil {
		t.Error("Expected error for missing file")
	}

	garbage := filepath.Join(tmpDir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := GetImageDimensions(garbage); err == nil {
		t.Error("Expected error for invalid image data")
	}
}

func TestConstrainDimensions(t *testing.T) {
	tests := []struct {
		name                  string
		width, height         int
		maxDim, maxPixels     int
		wantWidth, wantHeight int
	}{
		{"within limits", 800, 600, 1280, MaxImagePixels, 800, 600},
		{"wide", 2560, 1440, 1280, MaxImagePixels, 1280, 720},
		{"tall", 1080, 1920, 1280, MaxImagePixels, 720, 1280},
		{"pixel cap", 1000, 1000, 4096, 250_000, 500, 500},
		{"no limits", 5000, 4000, 0, 0, 5000, 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := constrainDimensions(tt.width, tt.height, tt.maxDim, tt.maxPixels)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("constrainDimensions() = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "big.png")
	createTestImage(t, path, 400, 200, "png")

	img, err := LoadImageConstrained(path, 100, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("bounds = %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	img, err = LoadImageConstrained(path, 1000, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("bounds = %dx%d, want unchanged 400x200", b.Dx(), b.Dy())
	}
}

func TestPrepareSnapshot(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "FrontDoor.20240101_120000.png")
	createTestImage(t, src, 640, 480, "png")

	dst, err := PrepareSnapshot(src, outDir, 320)
	if err != nil {
		t.Fatalf("PrepareSnapshot() error = %v", err)
	}

	if filepath.Dir(dst) != outDir {
		t.Errorf("dst dir = %q, want %q", filepath.Dir(dst), outDir)
	}
	if !strings.HasSuffix(dst, ".jpg") {
		t.Errorf("dst = %q, want .jpg suffix", dst)
	}

	dims, err := GetImageDimensions(dst)
	if err != nil {
		t.Fatalf("prepared snapshot is not a valid image: %v", err)
	}
	if dims.Width != 320 || dims.Height != 240 {
		t.Errorf("prepared size = %dx%d, want 320x240", dims.Width, dims.Height)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, format, err := image.DecodeConfig(f); err != nil || format != "jpeg" {
		t.Errorf("prepared format = %q (err %v), want jpeg", format, err)
	}

	if _, err := os.Stat(src); err != nil {
		t.Errorf("source snapshot should be left in place: %v", err)
	}
}

func TestPrepareSnapshot_InvalidSource(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "broken.jpg")
	if err := os.WriteFile(src, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := PrepareSnapshot(src, outDir, 0); err == nil {
		t.Fatal("PrepareSnapshot() expected error for invalid image")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("left %d files behind after failure", len(entries))
	}
}
