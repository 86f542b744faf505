package cache

import (
	"bytes"
	"image"
	"image/png"

	// Decoders for the formats logo URLs commonly serve.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxDecodePixels caps the frame size Canonicalize will decode. Larger
// images are stored as fetched.
const MaxDecodePixels = 4096 * 4096

// Canonicalize re-encodes raster data as PNG. Data that cannot be decoded
// (SVG, ICO, truncated files) or whose header declares more than
// MaxDecodePixels is returned unchanged with reencoded false.
func Canonicalize(data []byte) (out []byte, reencoded bool) {
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
			return data, false
		}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return data, false
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return data, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return data, false
	}
	return buf.Bytes(), true
}
