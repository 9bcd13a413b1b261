package docfeat

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WordprocessingML length units.
const (
	twipsPerMm = 56.6929 // 1440 twips/inch ÷ 25.4
	twipsPerCm = 566.929
)

// Minimal mapping of word/document.xml. Only direct children of w:body are
// walked, so table cells do not contribute paragraphs (matching how the
// visible paragraph flow is usually analysed).
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	SectPr     *docxSectPr     `xml:"sectPr"`
}

type docxParagraph struct {
	Props *docxParaProps `xml:"pPr"`
	Runs  []docxRun      `xml:"r"`
}

type docxParaProps struct {
	Style   *docxVal     `xml:"pStyle"`
	Spacing *docxSpacing `xml:"spacing"`
	Indent  *docxIndent  `xml:"ind"`
	SectPr  *docxSectPr  `xml:"sectPr"`
}

type docxVal struct {
	Val string `xml:"val,attr"`
}

type docxSpacing struct {
	Line     string `xml:"line,attr"`
	LineRule string `xml:"lineRule,attr"`
}

type docxIndent struct {
	FirstLine string `xml:"firstLine,attr"`
}

type docxRun struct {
	Props *docxRunProps `xml:"rPr"`
	Text  []string      `xml:"t"`
}

type docxRunProps struct {
	Bold  *docxVal  `xml:"b"`
	Fonts *docxFont `xml:"rFonts"`
	Size  *docxVal  `xml:"sz"`
}

type docxFont struct {
	ASCII string `xml:"ascii,attr"`
	HAnsi string `xml:"hAnsi,attr"`
}

type docxSectPr struct {
	Margins *docxMargins `xml:"pgMar"`
}

type docxMargins struct {
	Top    string `xml:"top,attr"`
	Bottom string `xml:"bottom,attr"`
	Left   string `xml:"left,attr"`
	Right  string `xml:"right,attr"`
}

func (p *docxParagraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			sb.WriteString(t)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (p *docxParagraph) styleName() string {
	if p.Props == nil || p.Props.Style == nil {
		return ""
	}
	return p.Props.Style.Val
}

func (p *docxParagraph) hasBoldRun() bool {
	for _, r := range p.Runs {
		if r.Props == nil || r.Props.Bold == nil {
			continue
		}
		switch r.Props.Bold.Val {
		case "0", "false", "none":
		default:
			return true
		}
	}
	return false
}

// extractDocx parses a .docx file and applies the structural heuristics
// over its paragraph model.
func extractDocx(path string, h Heuristics) (*DocumentFeatures, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read document.xml: %w", err)
	}

	var doc docxDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}

	features := &DocumentFeatures{}

	var (
		fonts        []string
		sizes        []float64
		lineSpacings []float64
		indents      []float64
		introParts   []string
		fullText     strings.Builder
		hasChapters  bool
		introStarted bool
		firstSectPr  *docxSectPr
		sectionCount int
	)

	for paraNum, para := range doc.Body.Paragraphs {
		if para.Props != nil && para.Props.SectPr != nil {
			sectionCount++
			if firstSectPr == nil {
				firstSectPr = para.Props.SectPr
			}
		}

		text := para.text()
		if text == "" {
			continue
		}

		fullText.WriteString(text)
		fullText.WriteByte(' ')
		features.WordCount += len(strings.Fields(text))

		lower := strings.ToLower(text)

		// Heading heuristic: explicit heading style, any bold run, a short
		// all-caps line, or a leading-number pattern.
		isHeading := strings.HasPrefix(strings.ToLower(para.styleName()), "heading") ||
			para.hasBoldRun() ||
			(len([]rune(text)) < h.HeadingMaxLen && isAllUpper(text)) ||
			numberedHeadingRe.MatchString(lower)

		if isHeading {
			cleaned := stripNumberPrefix(text)
			features.RequiredElements = appendElement(features.RequiredElements, cleaned)
			if chapterRe.MatchString(lower) {
				hasChapters = true
			}
			// Any heading other than the introduction itself ends the
			// introduction capture.
			if introStarted && cleaned != elementIntroduction {
				introStarted = false
			}
		}

		if paraNum < h.TitleKeywordWindow && hasTitleKeyword(lower) {
			features.RequiredElements = appendElement(features.RequiredElements, elementTitlePage)
		}

		if strings.Contains(lower, elementIntroduction) {
			introStarted = true
		}
		if introStarted {
			introParts = append(introParts, text)
		}

		for _, run := range para.Runs {
			if run.Props == nil {
				continue
			}
			if run.Props.Fonts != nil {
				if name := firstNonEmpty(run.Props.Fonts.ASCII, run.Props.Fonts.HAnsi); name != "" {
					fonts = append(fonts, name)
				}
			}
			if run.Props.Size != nil {
				if halfPts, err := strconv.ParseFloat(run.Props.Size.Val, 64); err == nil {
					sizes = append(sizes, halfPts/2)
				}
			}
		}

		if para.Props != nil {
			if sp := para.Props.Spacing; sp != nil && sp.Line != "" {
				// w:line is in 240ths of a line for the "auto" rule; exact
				// and atLeast rules are absolute heights and are skipped.
				if sp.LineRule == "" || sp.LineRule == "auto" {
					if v, err := strconv.ParseFloat(sp.Line, 64); err == nil && v > 0 {
						lineSpacings = append(lineSpacings, v/240)
					}
				}
			}
			if ind := para.Props.Indent; ind != nil && ind.FirstLine != "" {
				if v, err := strconv.ParseFloat(ind.FirstLine, 64); err == nil && v > 0 {
					indents = append(indents, v/twipsPerCm)
				}
			}
		}
	}

	if doc.Body.SectPr != nil {
		sectionCount++
		if firstSectPr == nil {
			firstSectPr = doc.Body.SectPr
		}
	}
	if sectionCount == 0 && len(doc.Body.Paragraphs) > 0 {
		sectionCount = 1
	}
	features.PageCount = sectionCount

	features.FullText = strings.TrimSpace(fullText.String())
	features.IntroductionText = strings.Join(introParts, " ")

	if v, _, ok := mode(fonts); ok {
		features.FontSettings.FontFamily = ptr(v)
	}
	if v, _, ok := mode(sizes); ok {
		features.FontSettings.FontSize = ptr(int(math.Round(v)))
	}
	if v, _, ok := mode(lineSpacings); ok {
		features.FontSettings.LineSpacing = ptr(round1(v))
	}
	if v, _, ok := mode(indents); ok {
		features.ParagraphIndent = ptr(round2(v))
	}

	if firstSectPr != nil && firstSectPr.Margins != nil {
		m := firstSectPr.Margins
		features.PageMargins.Left = twipsToMm(m.Left)
		features.PageMargins.Right = twipsToMm(m.Right)
		features.PageMargins.Top = twipsToMm(m.Top)
		features.PageMargins.Bottom = twipsToMm(m.Bottom)
	}

	if hasChapters {
		features.RequiredElements = appendElement(features.RequiredElements, elementMainBody)
	}

	return features, nil
}

func twipsToMm(attr string) *float64 {
	v, err := strconv.ParseFloat(attr, 64)
	if err != nil {
		return nil
	}
	return ptr(round1(v / twipsPerMm))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
