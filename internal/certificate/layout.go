package certificate

import (
	"fmt"
	"image"
	"strings"
	"time"

	"golang.org/x/image/font"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// Page geometry in millimetres. The page is rasterized at PxPerMM.
const (
	PageWidthMM  = 210
	PageHeightMM = 297
	PxPerMM      = 4

	marginMM      = 20
	outerInsetMM  = 10
	innerInsetMM  = 15
	topMM         = 30
	imageSizeMM   = 60
	ruleIndentMM  = 30
	footerFromMM  = 20
	descIndentMM  = 10
	blockGapMM    = 4
	ruleGapMM     = 6
	phraseRunes   = 90
	nameMaxLines  = 2
	titleMaxLines = 2
	descMaxLines  = 8
)

const (
	titleText    = "Joulun Osaaja"
	subtitleText = "Eduro Pikkujoulukioski"
	leadInText   = "Tämä todistus myönnetään"
	footerText   = "Eduro - Joulun Osaaja -todistus"
)

func mm(v float64) float64 { return v * PxPerMM }

// Kind identifies a layout block.
type Kind int

const (
	KindTitle Kind = iota
	KindSubtitle
	KindRule
	KindLeadIn
	KindName
	KindImage
	KindResultTitle
	KindDescription
	KindScore
	KindPhrase
	KindDate
	KindFooter
)

var kindNames = [...]string{
	"title", "subtitle", "rule", "lead_in", "name", "image",
	"result_title", "description", "score", "phrase", "date", "footer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Block is one placed element. Coordinates are pixels from the top-left.
type Block struct {
	Kind   Kind
	Lines  []string
	Top    float64
	Height float64
	// Width is the widest line, or the image side.
	Width float64

	face font.Face
}

// Layout is the full placement of a certificate page.
type Layout struct {
	Width  float64
	Height float64
	Blocks []Block

	image image.Image
}

// Block returns the first block of kind k.
func (l Layout) Block(k Kind) (Block, bool) {
	for _, b := range l.Blocks {
		if b.Kind == k {
			return b, true
		}
	}
	return Block{}, false
}

// ContentWidth is the widest any block may be.
func ContentWidth() float64 {
	return mm(PageWidthMM - 2*marginMM)
}

// Data is everything printed on a certificate.
type Data struct {
	Name     string
	Result   domain.PersonalizationResult
	IssuedAt time.Time
}

// DataFromRecord builds certificate data from a finished wizard record.
func DataFromRecord(rec domain.WizardRecord, issuedAt time.Time) (Data, error) {
	if rec.Result == nil {
		return Data{}, fmt.Errorf("%w: record has no result", ErrRenderFailed)
	}
	return Data{
		Name:     rec.ParticipantName,
		Result:   *rec.Result,
		IssuedAt: issuedAt,
	}, nil
}

// layout stacks the blocks top to bottom. The image block is only added when
// the result image decodes; otherwise everything below moves up.
func layout(f *faces, d Data) Layout {
	l := Layout{Width: mm(PageWidthMM), Height: mm(PageHeightMM)}
	y := mm(topMM)

	text := func(k Kind, face font.Face, width float64, maxLines int, s string) {
		lines := wrap(width, maxLines, func(s string) float64 { return measure(face, s) }, s)
		if len(lines) == 0 {
			return
		}
		b := Block{Kind: k, Lines: lines, Top: y, Height: float64(len(lines)) * lineHeight(face), face: face}
		for _, line := range lines {
			if w := measure(face, line); w > b.Width {
				b.Width = w
			}
		}
		l.Blocks = append(l.Blocks, b)
		y += b.Height + mm(blockGapMM)
	}
	rule := func() {
		y += mm(ruleGapMM) - mm(blockGapMM)
		l.Blocks = append(l.Blocks, Block{Kind: KindRule, Top: y, Width: mm(PageWidthMM - 2*(marginMM+ruleIndentMM))})
		y += mm(ruleGapMM)
	}

	content := ContentWidth()
	text(KindTitle, f.title, content, 1, titleText)
	text(KindSubtitle, f.subtitle, content, 1, subtitleText)
	rule()
	text(KindLeadIn, f.leadIn, content, 1, leadInText)
	text(KindName, f.name, content, nameMaxLines, d.Name)

	if img, err := d.Result.Image.Decode(); err == nil {
		side := mm(imageSizeMM)
		l.Blocks = append(l.Blocks, Block{Kind: KindImage, Top: y, Height: side, Width: side})
		l.image = img
		y += side + mm(blockGapMM)
	}

	text(KindResultTitle, f.resultTitle, content, titleMaxLines, d.Result.Title)
	text(KindDescription, f.body, content-2*mm(descIndentMM), descMaxLines, d.Result.Description)
	text(KindScore, f.score, content, 1, fmt.Sprintf("Tonttupisteet: %d/%d", domain.ClampScore(d.Result.Score), domain.MaxScore))
	if phrase := strings.TrimSpace(d.Result.MysticalPhrase); phrase != "" {
		text(KindPhrase, f.phrase, content, 2, truncateRunes(phrase, phraseRunes))
	}
	rule()
	text(KindDate, f.date, content, 1, "Myönnetty: "+FinnishDate(d.IssuedAt))

	y = mm(PageHeightMM-footerFromMM) - lineHeight(f.footer)
	text(KindFooter, f.footer, content, 1, footerText)
	return l
}
