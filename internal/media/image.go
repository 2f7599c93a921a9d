package media

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"clip-relay/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height we'll process
	// Images larger than this will be downscaled first
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll process
	MaxImagePixels = 20_000_000

	// DefaultSnapshotDimension keeps snapshots well inside Telegram's photo
	// limits (width + height <= 10000, 10 MB)
	DefaultSnapshotDimension = 1280

	// snapshotJPEGQuality is the quality used when re-encoding snapshots
	snapshotJPEGQuality = 85
)

// LoadImageConstrained loads an image, downscaling if it exceeds size limits
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	// First, try to get image dimensions without fully decoding
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("Could not get image dimensions for %s: %v, loading with constraints", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dimensions.Width, dimensions.Height
	targetWidth, targetHeight := constrainDimensions(width, height, maxDimension, maxPixels)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	if targetWidth == width && targetHeight == height {
		return img, nil
	}

	logging.Debug("Constraining image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

// constrainDimensions scales width and height down, keeping the aspect ratio,
// until both fit maxDimension and their product fits maxPixels.
func constrainDimensions(width, height, maxDimension, maxPixels int) (int, int) {
	targetWidth, targetHeight := width, height

	// First, constrain by max dimension
	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	// Then, constrain by total pixels if still too large
	if maxPixels > 0 && targetWidth*targetHeight > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetWidth*targetHeight))
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// PrepareSnapshot writes a JPEG copy of the snapshot at src into dir,
// constrained to maxDimension on its longest side, and returns its path.
// The caller removes the returned file once it has been uploaded.
func PrepareSnapshot(src, dir string, maxDimension int) (string, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultSnapshotDimension
	}

	img, err := LoadImageConstrained(src, maxDimension, MaxImagePixels)
	if err != nil {
		return "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	f, err := os.CreateTemp(dir, base+".*.upload.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot upload file: %w", err)
	}
	dst := f.Name()

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(snapshotJPEGQuality)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	return dst, nil
}
