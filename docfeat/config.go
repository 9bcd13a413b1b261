package docfeat

import "log/slog"

// Heuristics are the tunable thresholds used by structural detection.
// The defaults match what was calibrated against real coursework files;
// they are parameters rather than constants so deployments can adjust
// them without a rebuild.
type Heuristics struct {
	// HeadingMaxLen is the maximum length of an all-caps line that still
	// counts as a heading (default: 50 characters).
	HeadingMaxLen int `json:"heading_max_len" yaml:"heading_max_len"`

	// TitleKeywordWindow limits title-page keyword detection to the first
	// N paragraphs of a DOCX document (default: 50).
	TitleKeywordWindow int `json:"title_keyword_window" yaml:"title_keyword_window"`

	// HeadingSizeDelta is how many points above the page's average glyph
	// size a character must be for its line to count as a heading
	// (default: 1.0).
	HeadingSizeDelta float64 `json:"heading_size_delta" yaml:"heading_size_delta"`

	// LineGapMinRatio and LineGapMaxRatio bound the band of baseline
	// deltas, as multiples of the average glyph size, that are treated as
	// genuine line gaps when estimating line spacing (defaults: 0.5, 3.0).
	LineGapMinRatio float64 `json:"line_gap_min_ratio" yaml:"line_gap_min_ratio"`
	LineGapMaxRatio float64 `json:"line_gap_max_ratio" yaml:"line_gap_max_ratio"`

	// IntroFallbackChars is how much of the document start is reported as
	// introduction text when no introduction heading is found (default: 1000).
	IntroFallbackChars int `json:"intro_fallback_chars" yaml:"intro_fallback_chars"`
}

func (h *Heuristics) defaults() {
	if h.HeadingMaxLen <= 0 {
		h.HeadingMaxLen = 50
	}
	if h.TitleKeywordWindow <= 0 {
		h.TitleKeywordWindow = 50
	}
	if h.HeadingSizeDelta <= 0 {
		h.HeadingSizeDelta = 1.0
	}
	if h.LineGapMinRatio <= 0 {
		h.LineGapMinRatio = 0.5
	}
	if h.LineGapMaxRatio <= 0 {
		h.LineGapMaxRatio = 3.0
	}
	if h.IntroFallbackChars <= 0 {
		h.IntroFallbackChars = 1000
	}
}

// Config configures an Extractor.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	Heuristics Heuristics `json:"heuristics" yaml:"heuristics"`

	// Logger for debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Heuristics.defaults()
}
