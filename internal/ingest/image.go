package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ResizeJPEG decodes an image, downscales it so neither dimension exceeds
// maxDim (aspect preserved, never upscaled), composites it over an opaque
// white background, and re-encodes as JPEG. The opaque composite matters for
// transparent PNGs sent to vision models.
func ResizeJPEG(data []byte, maxDim int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image has empty bounds")
	}

	w, h := fitWithin(width, height, maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (width, height) down to fit maxDim on the longer side.
func fitWithin(width, height, maxDim int) (int, int) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height
	}
	if width > height {
		return maxDim, max(1, int(float64(height)*float64(maxDim)/float64(width)+0.5))
	}
	return max(1, int(float64(width)*float64(maxDim)/float64(height)+0.5)), maxDim
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
