package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/webp"

	"github.com/starford/mannaz/internal/apperr"
)

// jpegQuality is the fixed quality factor used when re-encoding rotated
// lossy images.
const jpegQuality = 95

// Angles is the fixed probe order used by rotation selection.
var Angles = []int{0, 90, 180, 270}

// Rotate rotates a card image clockwise by degrees (0, 90, 180, or 270) and
// re-encodes it. 0 is the identity transform and returns the input buffer
// unmodified. The returned MIME type matches the input except for WebP,
// which Go cannot encode and therefore comes back as PNG.
//
// A decode failure is an *apperr.RenderError; an encode failure is an
// *apperr.EncodeError. Both are fatal to the current image's processing.
func Rotate(data []byte, mimeType string, degrees int) ([]byte, string, error) {
	if degrees == 0 {
		return data, mimeType, nil
	}
	if degrees != 90 && degrees != 180 && degrees != 270 {
		return nil, "", fmt.Errorf("imaging: unsupported rotation %d", degrees)
	}

	img, err := decode(data, mimeType)
	if err != nil {
		return nil, "", &apperr.RenderError{MIMEType: mimeType, Err: err}
	}

	rotated := rotateRaster(img, degrees)

	outMIME := mimeType
	if mimeType == "image/webp" {
		outMIME = "image/png"
	}

	var buf bytes.Buffer
	switch outMIME {
	case "image/jpeg":
		err = jpeg.Encode(&buf, rotated, &jpeg.Options{Quality: jpegQuality})
	case "image/png":
		err = png.Encode(&buf, rotated)
	default:
		err = fmt.Errorf("no encoder for %s", outMIME)
	}
	if err != nil {
		return nil, "", &apperr.EncodeError{MIMEType: outMIME, Err: err}
	}
	return buf.Bytes(), outMIME, nil
}

func decode(data []byte, mimeType string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("no decoder for %s", mimeType)
	}
}

// rotateRaster maps every source pixel onto a clockwise-rotated canvas.
// 90 and 270 swap the canvas dimensions; 180 keeps them.
func rotateRaster(img image.Image, degrees int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	switch degrees {
	case 90, 270:
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	default:
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch degrees {
			case 90:
				dst.Set(h-1-y, x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

// Dimensions decodes only the image header and returns its width and height.
func Dimensions(data []byte, mimeType string) (int, int, error) {
	r := bytes.NewReader(data)
	var (
		cfg image.Config
		err error
	)
	switch mimeType {
	case "image/jpeg":
		cfg, err = jpeg.DecodeConfig(r)
	case "image/png":
		cfg, err = png.DecodeConfig(r)
	case "image/webp":
		cfg, err = webp.DecodeConfig(r)
	default:
		err = fmt.Errorf("no decoder for %s", mimeType)
	}
	if err != nil {
		return 0, 0, &apperr.RenderError{MIMEType: mimeType, Err: err}
	}
	return cfg.Width, cfg.Height, nil
}
