package docfeat

// Format identifies a supported document type.
type Format string

const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// FontSettings holds the dominant typography observed across a document.
// A nil field means no signal was recovered for that setting.
type FontSettings struct {
	FontFamily  *string  `json:"font_family"`
	FontSize    *int     `json:"font_size"`
	LineSpacing *float64 `json:"line_spacing"`
}

// PageMargins are page margins in millimeters.
type PageMargins struct {
	Left   *float64 `json:"left"`
	Right  *float64 `json:"right"`
	Top    *float64 `json:"top"`
	Bottom *float64 `json:"bottom"`
}

// DocumentFeatures is the normalized feature set extracted from one document.
// It is created once per check and never mutated afterwards.
type DocumentFeatures struct {
	// RequiredElements lists detected section labels, lowercased, with
	// leading numbering stripped, in document order, duplicates suppressed.
	RequiredElements []string `json:"required_elements"`

	FontSettings FontSettings `json:"font_settings"`
	PageMargins  PageMargins  `json:"page_margins"`

	// ParagraphIndent is the dominant first-line indent in centimeters.
	ParagraphIndent *float64 `json:"paragraph_indent"`

	// IntroductionText is the text captured between the "введение" heading
	// and the next structural heading.
	IntroductionText string `json:"introduction_text"`

	FullText  string `json:"full_text"`
	WordCount int    `json:"word_count"`
	PageCount int    `json:"page_count"`
}

// Field returns the feature value addressed by a rule's field name.
// Nil means the feature was not recovered at all; rule evaluation turns
// that into a failed "setting is absent" result instead of crashing.
func (f *DocumentFeatures) Field(name string) any {
	switch name {
	case "required_elements":
		if f.RequiredElements == nil {
			return []string{}
		}
		return f.RequiredElements
	case "font_settings":
		m := map[string]any{}
		if f.FontSettings.FontFamily != nil {
			m["font_family"] = *f.FontSettings.FontFamily
		}
		if f.FontSettings.FontSize != nil {
			m["font_size"] = *f.FontSettings.FontSize
		}
		if f.FontSettings.LineSpacing != nil {
			m["line_spacing"] = *f.FontSettings.LineSpacing
		}
		if len(m) == 0 {
			return nil
		}
		return m
	case "page_margins":
		m := map[string]any{}
		if f.PageMargins.Left != nil {
			m["left"] = *f.PageMargins.Left
		}
		if f.PageMargins.Right != nil {
			m["right"] = *f.PageMargins.Right
		}
		if f.PageMargins.Top != nil {
			m["top"] = *f.PageMargins.Top
		}
		if f.PageMargins.Bottom != nil {
			m["bottom"] = *f.PageMargins.Bottom
		}
		if len(m) == 0 {
			return nil
		}
		return m
	case "paragraph_indent":
		if f.ParagraphIndent == nil {
			return nil
		}
		return *f.ParagraphIndent
	case "introduction_text":
		return f.IntroductionText
	case "full_text":
		return f.FullText
	case "word_count":
		return f.WordCount
	case "page_count":
		return f.PageCount
	default:
		return nil
	}
}
