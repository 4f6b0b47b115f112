package mindee

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/EnkrateiaLucca/expense-report-automation/constants"
)

// EnhanceReceipt applies the preprocessing chain that makes photographed
// receipts easier for the service to read: grayscale, contrast, sharpening,
// a touch of brightness.
func EnhanceReceipt(src image.Image) *image.NRGBA {
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	return img
}

// PrepareUpload loads the receipt image from disk, optionally enhancing it
// first. Returns the upload bytes and the filename to report to the service.
func PrepareUpload(path string, enhance bool) ([]byte, string, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return nil, "", fmt.Errorf("unsupported image format %q", ext)
	}

	if !enhance {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
		return data, filepath.Base(path), nil
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, EnhanceReceipt(src), imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, "", fmt.Errorf("encode enhanced image: %w", err)
	}

	name := filepath.Base(path)
	if e := filepath.Ext(name); e != "" {
		name = name[:len(name)-len(e)]
	}
	return buf.Bytes(), name + ".jpg", nil
}
