package docfeat

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF length units.
const (
	ptPerCm = 28.346
	mmPerPt = 0.3528
)

// A4 in points, used when page dimensions cannot be read.
const (
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
)

var (
	// subsetPrefixRe strips embedded-subset tags like "ABCDEF+".
	subsetPrefixRe = regexp.MustCompile(`^[A-Z]{6}\+`)
	// styleSuffixRe strips style suffixes from base font names.
	styleSuffixRe = regexp.MustCompile(`-(Regular|Bold|Italic|BoldItalic)$`)
)

func cleanFontName(name string) string {
	name = subsetPrefixRe.ReplaceAllString(name, "")
	return styleSuffixRe.ReplaceAllString(name, "")
}

// pdfLine is one reconstructed visual line of a page.
type pdfLine struct {
	text    string
	maxSize float64
}

// extractPDF recovers document features from glyph positions, sizes and
// font names. Everything here is heuristic: a PDF stores neither headings
// nor margins, so both are inferred from typography and layout.
func extractPDF(ctx context.Context, path string, h Heuristics) (*DocumentFeatures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pageW, pageH := defaultPageWidth, defaultPageHeight
	if dims, err := pctx.PageDims(); err == nil && len(dims) > 0 {
		if dims[0].Width > 0 && dims[0].Height > 0 {
			pageW, pageH = dims[0].Width, dims[0].Height
		}
	}

	fontMaps := resourceFontMaps(pctx)

	features := &DocumentFeatures{PageCount: pctx.PageCount}

	var (
		fonts       []string
		sizes       []float64
		lineDeltas  []float64
		pageIndents []float64
		fullText    strings.Builder
		hasChapters bool

		minX, maxX = math.Inf(1), math.Inf(-1)
		minY, maxY = math.Inf(1), math.Inf(-1)
		haveExtent bool
	)

	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", pageNr, err)
		}
		data, err := io.ReadAll(cr)
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", pageNr, err)
		}

		glyphs := interpretContent(data, fontMaps[pageNr])
		if len(glyphs) == 0 {
			continue
		}

		var sizeSum float64
		for _, g := range glyphs {
			sizeSum += g.size
		}
		avgSize := sizeSum / float64(len(glyphs))
		if avgSize <= 0 {
			avgSize = 12
		}

		lines := buildLines(glyphs, avgSize)

		var pageText strings.Builder
		for i, ln := range lines {
			if i > 0 {
				pageText.WriteByte('\n')
			}
			pageText.WriteString(ln.text)
		}
		fullText.WriteString(pageText.String())
		fullText.WriteByte(' ')
		features.WordCount += countWords(pageText.String())

		for _, ln := range lines {
			trimmed := strings.TrimSpace(ln.text)
			if trimmed == "" {
				continue
			}
			lower := strings.ToLower(trimmed)

			if sectionNameRe.MatchString(lower) || ln.maxSize > avgSize+h.HeadingSizeDelta {
				cleaned := stripNumberPrefix(trimmed)
				if !containsElement(features.RequiredElements, cleaned) {
					features.RequiredElements = append(features.RequiredElements, cleaned)
					if chapterRe.MatchString(trimmed) {
						hasChapters = true
					}
				}
			}

			if pageNr == 1 && hasTitleKeyword(lower) {
				features.RequiredElements = appendElement(features.RequiredElements, elementTitlePage)
			}
		}

		for _, g := range glyphs {
			if g.font != "" {
				fonts = append(fonts, g.font)
			}
			sizes = append(sizes, g.size)
			if strings.TrimSpace(g.text) != "" {
				minX = math.Min(minX, g.x)
				maxX = math.Max(maxX, g.x+g.width())
			}
			minY = math.Min(minY, g.y)
			maxY = math.Max(maxY, g.top())
			haveExtent = true
		}

		lineDeltas = append(lineDeltas, baselineDeltas(glyphs, avgSize, h)...)

		if indent, ok := pageIndent(glyphs, avgSize, h); ok {
			pageIndents = append(pageIndents, indent)
		}
	}

	features.FullText = strings.TrimSpace(fullText.String())
	features.IntroductionText = extractIntroduction(features.FullText, h.IntroFallbackChars)

	if v, _, ok := mode(fonts); ok {
		features.FontSettings.FontFamily = ptr(v)
	}
	if v, _, ok := mode(sizes); ok {
		features.FontSettings.FontSize = ptr(int(math.Round(v)))
	}
	if len(lineDeltas) > 0 {
		ref := 14.0
		if features.FontSettings.FontSize != nil {
			ref = float64(*features.FontSettings.FontSize)
		}
		features.FontSettings.LineSpacing = ptr(round1(mean(lineDeltas) / ref))
	}
	if len(pageIndents) > 0 {
		features.ParagraphIndent = ptr(round2(mean(pageIndents)))
	}

	if haveExtent {
		features.PageMargins.Left = ptr(positiveMm(minX))
		features.PageMargins.Right = ptr(positiveMm(pageW - maxX))
		features.PageMargins.Top = ptr(positiveMm(pageH - maxY))
		features.PageMargins.Bottom = ptr(positiveMm(minY))
	}

	if hasChapters {
		features.RequiredElements = appendElement(features.RequiredElements, elementMainBody)
	}

	return features, nil
}

func positiveMm(pt float64) float64 {
	if pt <= 0 {
		return 0
	}
	return round1(pt * mmPerPt)
}

func containsElement(elements []string, el string) bool {
	for _, e := range elements {
		if e == el {
			return true
		}
	}
	return false
}

// resourceFontMaps builds, per page, the mapping from font resource names
// (the /F1-style operands of Tf) to cleaned base font names, using the
// optimization pass pdfcpu already ran over the cross-reference table.
func resourceFontMaps(pctx *model.Context) map[int]map[string]string {
	maps := make(map[int]map[string]string)
	if pctx.Optimize == nil {
		return maps
	}
	for i, objNrs := range pctx.Optimize.PageFonts {
		pageNr := i + 1
		m := make(map[string]string)
		for objNr, used := range objNrs {
			if !used {
				continue
			}
			fo, ok := pctx.Optimize.FontObjects[objNr]
			if !ok || fo == nil {
				continue
			}
			name := cleanFontName(fo.FontName)
			if name == "" {
				continue
			}
			for _, res := range fo.ResourceNames {
				m[res] = name
			}
		}
		if len(m) > 0 {
			maps[pageNr] = m
		}
	}
	return maps
}

// buildLines groups glyphs into visual lines, top to bottom. A new line
// starts when the baseline drops by more than half the average glyph
// size. Word gaps wider than a third of the glyph size become spaces.
func buildLines(glyphs []glyph, avgSize float64) []pdfLine {
	ordered := make([]glyph, len(glyphs))
	copy(ordered, glyphs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].y != ordered[j].y {
			return ordered[i].y > ordered[j].y
		}
		return ordered[i].x < ordered[j].x
	})

	var lines []pdfLine
	var sb strings.Builder
	var lineMax float64
	curY := math.Inf(1)
	prevRight := 0.0

	flush := func() {
		if sb.Len() == 0 {
			return
		}
		lines = append(lines, pdfLine{text: sb.String(), maxSize: lineMax})
		sb.Reset()
		lineMax = 0
	}

	for _, g := range ordered {
		if curY-g.y > avgSize*0.5 {
			flush()
			curY = g.y
			prevRight = g.x
		}
		if sb.Len() > 0 && g.x-prevRight > g.size*0.3 {
			sb.WriteByte(' ')
		}
		sb.WriteString(g.text)
		prevRight = g.x + g.width()
		if g.size > lineMax {
			lineMax = g.size
		}
	}
	flush()
	return lines
}

// baselineDeltas returns the gaps between successive distinct baselines
// that fall inside the configured band; gaps outside it are column jumps
// or kerning noise, not line spacing.
func baselineDeltas(glyphs []glyph, avgSize float64, h Heuristics) []float64 {
	seen := make(map[float64]bool)
	var ys []float64
	for _, g := range glyphs {
		if !seen[g.y] {
			seen[g.y] = true
			ys = append(ys, g.y)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	var deltas []float64
	for i := 0; i+1 < len(ys); i++ {
		d := ys[i] - ys[i+1]
		if d > avgSize*h.LineGapMinRatio && d < avgSize*h.LineGapMaxRatio {
			deltas = append(deltas, d)
		}
	}
	return deltas
}

// pageIndent averages the x positions of line-starting glyphs whose size
// does not exceed the body text size, excluding headings from the
// estimate. Result is in centimeters.
func pageIndent(glyphs []glyph, avgSize float64, h Heuristics) (float64, bool) {
	ordered := make([]glyph, len(glyphs))
	copy(ordered, glyphs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].top() != ordered[j].top() {
			return ordered[i].top() > ordered[j].top()
		}
		return ordered[i].x < ordered[j].x
	})

	var firstX []float64
	prevY := math.Inf(1)
	for _, g := range ordered {
		if math.Abs(g.top()-prevY) > avgSize*0.5 {
			if g.size <= avgSize+h.HeadingSizeDelta {
				firstX = append(firstX, g.x)
			}
			prevY = g.top()
		}
	}
	if len(firstX) == 0 {
		return 0, false
	}
	return mean(firstX) / ptPerCm, true
}
