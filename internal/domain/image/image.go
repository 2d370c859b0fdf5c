// Package image validates pet photos received as base64 and prepares them for providers.
package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	stdimage "image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register bmp
	_ "golang.org/x/image/webp" // register webp
)

const jpegQuality = 85

// Decoded is a validated image payload.
type Decoded struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// MIMEType returns the content type matching Format.
func (d Decoded) MIMEType() string {
	switch d.Format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// Decode turns a base64 payload into validated image bytes. A data URL
// prefix is accepted. Payloads larger than maxBytes (when positive), invalid
// base64 and bytes that no registered decoder understands are rejected with
// ErrInvalidImage. Dimensions are read from the header and checked against
// the pixel limit before any pixel data is decoded.
func Decode(b64 string, maxBytes int, opts ...DecodeOption) (Decoded, error) {
	o := newDecodeOptions(opts)
	b64 = strings.TrimSpace(b64)
	if strings.HasPrefix(b64, "data:") {
		if i := strings.IndexByte(b64, ','); i >= 0 {
			b64 = b64[i+1:]
		}
	}
	if b64 == "" {
		return Decoded{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(b64, "="))
		if err != nil {
			return Decoded{}, fmt.Errorf("%w: base64: %w", ErrInvalidImage, err)
		}
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Decoded{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrImageTooLarge, len(data), maxBytes)
	}

	cfg, _, err := decodeConfig(data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Decoded{}, fmt.Errorf("%w: empty dimensions %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(o.maxPixels) {
		return Decoded{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, o.maxPixels)
	}

	img, format, err := decodeBytes(data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	b := img.Bounds()
	return Decoded{Data: data, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// PrepareForProvider shrinks d so that neither edge exceeds maxDim and
// re-encodes it as JPEG. Images already within bounds, or maxDim <= 0,
// are returned unchanged.
func PrepareForProvider(d Decoded, maxDim int) (Decoded, error) {
	if maxDim <= 0 || (d.Width <= maxDim && d.Height <= maxDim) {
		return d, nil
	}
	img, _, err := decodeBytes(d.Data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return Decoded{}, fmt.Errorf("encode resized image: %w", err)
	}
	b := img.Bounds()
	return Decoded{Data: buf.Bytes(), Format: "jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// decodeConfig reads only the image header.
func decodeConfig(data []byte) (stdimage.Config, string, error) {
	cfg, format, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, format, nil
	}
	if wcfg, werr := webp.DecodeConfig(bytes.NewReader(data)); werr == nil {
		return wcfg, "webp", nil
	}
	return stdimage.Config{}, "", err
}

func decodeBytes(data []byte) (stdimage.Image, string, error) {
	_, format, cfgErr := stdimage.DecodeConfig(bytes.NewReader(data))
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		if cfgErr != nil {
			format = "jpeg"
		}
		return img, format, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, "webp", nil
	}
	if cfgErr != nil {
		return nil, "", cfgErr
	}
	return nil, "", fmt.Errorf("unsupported %s image", format)
}
