package domain

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered decoders for captured and generated images.
	_ "image/jpeg"
	_ "image/png"
)

// ErrNotDataURL is returned when a reference is not a base64 image data URL.
var ErrNotDataURL = errors.New("not a base64 image data URL")

// Image is an embedded binary image: raw bytes plus their MIME type.
type Image struct {
	MIME string
	Data []byte
}

// IsZero reports whether the image carries no bytes.
func (i Image) IsZero() bool {
	return len(i.Data) == 0
}

// Equal reports whether two images have the same MIME type and bytes.
func (i Image) Equal(o Image) bool {
	return i.MIME == o.MIME && bytes.Equal(i.Data, o.Data)
}

// DataURL encodes the image as "data:<mime>;base64,<payload>".
func (i Image) DataURL() string {
	if i.IsZero() {
		return ""
	}
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Decode parses the image bytes with the registered decoders.
func (i Image) Decode() (image.Image, error) {
	if i.IsZero() {
		return nil, errors.New("empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Valid reports whether the bytes decode as a supported image format.
func (i Image) Valid() bool {
	if i.IsZero() {
		return false
	}
	_, _, err := image.DecodeConfig(bytes.NewReader(i.Data))
	return err == nil
}

// ParseDataURL decodes a "data:image/...;base64," reference.
func ParseDataURL(ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "data:image/") {
		return Image{}, ErrNotDataURL
	}
	header, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return Image{}, ErrNotDataURL
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data URL payload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrNotDataURL
	}
	return Image{MIME: mime, Data: data}, nil
}

// ImageFromBytes sniffs the format of raw bytes and wraps them as an Image.
func ImageFromBytes(data []byte) (Image, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("unsupported image: %w", err)
	}
	return Image{MIME: "image/" + format, Data: data}, nil
}
