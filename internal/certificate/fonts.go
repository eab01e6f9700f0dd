package certificate

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// dpi makes truetype point sizes come out at PxPerMM resolution.
const dpi = 25.4 * PxPerMM

type faces struct {
	title       font.Face
	subtitle    font.Face
	leadIn      font.Face
	name        font.Face
	resultTitle font.Face
	body        font.Face
	score       font.Face
	phrase      font.Face
	date        font.Face
	footer      font.Face
}

func loadFaces() (*faces, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := truetype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}

	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     dpi,
			Hinting: font.HintingNone,
		})
	}

	return &faces{
		title:       face(bold, 28),
		subtitle:    face(regular, 14),
		leadIn:      face(regular, 12),
		name:        face(bold, 24),
		resultTitle: face(bold, 18),
		body:        face(regular, 11),
		score:       face(bold, 14),
		phrase:      face(italic, 11),
		date:        face(regular, 10),
		footer:      face(regular, 9),
	}, nil
}

// measure returns the advance width of s in pixels.
func measure(f font.Face, s string) float64 {
	return float64(font.MeasureString(f, s)) / 64
}

func lineHeight(f font.Face) float64 {
	return float64(f.Metrics().Height) / 64
}

func ascent(f font.Face) float64 {
	return float64(f.Metrics().Ascent) / 64
}
