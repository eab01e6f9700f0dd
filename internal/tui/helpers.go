package tui

import (
	"bytes"
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// describeImage summarizes an image for a terminal that cannot show it.
func describeImage(img domain.Image) string {
	if img.IsZero() {
		return "ei kuvaa"
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return "kuva ei ole luettavissa"
	}
	return fmt.Sprintf("%d×%d %s, %d kt", cfg.Width, cfg.Height, format, (len(img.Data)+1023)/1024)
}
