package docfeat

import (
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// glyph is one placed character recovered from a PDF content stream.
// Coordinates are in points with the origin at the page's bottom-left,
// y being the text baseline.
type glyph struct {
	text string
	x, y float64
	size float64 // effective font size in points
	font string  // resolved base font name, "" when unresolved
}

// width returns the approximate advance width of the glyph. Exact widths
// live in per-font metrics the heuristics do not need; half the font size
// is close enough for margin and indent estimation.
func (g glyph) width() float64 { return g.size * 0.5 }

func (g glyph) top() float64 { return g.y + g.size }

// interpretContent walks a page content stream and emits glyphs with
// approximate positions. fonts maps resource names (the operand of Tf,
// without the leading slash) to base font names. The interpretation
// tracks only the text-positioning subset of the operator set; graphics
// state operators that merely transform drawings are ignored.
func interpretContent(data []byte, fonts map[string]string) []glyph {
	var (
		glyphs   []glyph
		operands []any // float64, []byte, string (name), []any (array)
	)

	st := struct {
		font    string
		size    float64
		scale   float64
		leading float64
		lineX   float64
		lineY   float64
		curX    float64
		curY    float64
	}{scale: 1}

	effSize := func() float64 {
		s := st.size * st.scale
		if s <= 0 {
			s = st.size
		}
		return s
	}

	show := func(raw []byte) {
		for _, r := range decodeTextBytes(raw) {
			g := glyph{
				text: string(r),
				x:    st.curX,
				y:    st.curY,
				size: effSize(),
				font: st.font,
			}
			glyphs = append(glyphs, g)
			st.curX += g.width()
		}
	}

	nextLine := func() {
		lead := st.leading
		if lead == 0 {
			lead = effSize() * 1.2
		}
		st.lineY -= lead
		st.curX, st.curY = st.lineX, st.lineY
	}

	num := func(i int) float64 {
		if i < 0 || i >= len(operands) {
			return 0
		}
		v, _ := operands[i].(float64)
		return v
	}

	tok := newContentTokenizer(data)
	for {
		t, ok := tok.next()
		if !ok {
			break
		}

		switch t.kind {
		case tokNumber:
			operands = append(operands, t.num)
		case tokString:
			operands = append(operands, t.str)
		case tokName:
			operands = append(operands, t.name)
		case tokArray:
			operands = append(operands, t.arr)
		case tokOperator:
			n := len(operands)
			switch t.op {
			case "BT":
				st.lineX, st.lineY, st.curX, st.curY = 0, 0, 0, 0
				st.scale = 1
			case "Tf":
				if n >= 2 {
					if name, ok := operands[n-2].(string); ok {
						st.font = fonts[name]
					}
					st.size = num(n - 1)
				}
			case "TL":
				st.leading = num(n - 1)
			case "Td":
				if n >= 2 {
					st.lineX += num(n - 2)
					st.lineY += num(n - 1)
					st.curX, st.curY = st.lineX, st.lineY
				}
			case "TD":
				if n >= 2 {
					st.leading = -num(n - 1)
					st.lineX += num(n - 2)
					st.lineY += num(n - 1)
					st.curX, st.curY = st.lineX, st.lineY
				}
			case "Tm":
				if n >= 6 {
					if d := num(n - 3); d != 0 {
						st.scale = abs(d)
					}
					st.lineX = num(n - 2)
					st.lineY = num(n - 1)
					st.curX, st.curY = st.lineX, st.lineY
				}
			case "T*":
				nextLine()
			case "Tj":
				if n >= 1 {
					if s, ok := operands[n-1].([]byte); ok {
						show(s)
					}
				}
			case "'":
				if n >= 1 {
					if s, ok := operands[n-1].([]byte); ok {
						nextLine()
						show(s)
					}
				}
			case "\"":
				if n >= 1 {
					if s, ok := operands[n-1].([]byte); ok {
						nextLine()
						show(s)
					}
				}
			case "TJ":
				if n >= 1 {
					if arr, ok := operands[n-1].([]any); ok {
						for _, el := range arr {
							switch v := el.(type) {
							case []byte:
								show(v)
							case float64:
								st.curX -= v / 1000 * effSize()
							}
						}
					}
				}
			case "BI":
				// Inline image: skip raw data up to the EI marker.
				tok.skipInlineImage()
			}
			operands = operands[:0]
		}
	}

	return glyphs
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// decodeTextBytes converts a PDF string's bytes to readable text.
// UTF-16BE (BOM-prefixed) and UTF-8 are handled directly; anything else
// is assumed to be a Windows-1251 single-byte encoding, which is what
// Russian coursework PDFs overwhelmingly use for simple fonts.
func decodeTextBytes(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokArray
	tokOperator
)

type token struct {
	kind tokenKind
	num  float64
	str  []byte
	name string
	arr  []any
	op   string
}

// contentTokenizer splits a content stream into numbers, names, strings,
// arrays and operators. Dictionaries (inline image parameters) are
// consumed and dropped.
type contentTokenizer struct {
	data []byte
	pos  int
}

func newContentTokenizer(data []byte) *contentTokenizer {
	return &contentTokenizer{data: data}
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (t *contentTokenizer) next() (token, bool) {
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch {
		case isWhitespace(c):
			t.pos++
		case c == '%':
			for t.pos < len(t.data) && t.data[t.pos] != '\n' && t.data[t.pos] != '\r' {
				t.pos++
			}
		case c == '(':
			t.pos++
			return token{kind: tokString, str: t.readLiteralString()}, true
		case c == '<':
			if t.pos+1 < len(t.data) && t.data[t.pos+1] == '<' {
				t.skipDict()
				continue
			}
			t.pos++
			return token{kind: tokString, str: t.readHexString()}, true
		case c == '[':
			t.pos++
			return token{kind: tokArray, arr: t.readArray()}, true
		case c == ']', c == '{', c == '}', c == ')', c == '>':
			t.pos++
		case c == '/':
			t.pos++
			return token{kind: tokName, name: t.readRegular()}, true
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			return token{kind: tokNumber, num: t.readNumber()}, true
		default:
			op := t.readRegular()
			if op == "" {
				t.pos++
				continue
			}
			return token{kind: tokOperator, op: op}, true
		}
	}
	return token{}, false
}

func (t *contentTokenizer) readRegular() string {
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelimiter(t.data[t.pos]) {
		t.pos++
	}
	return string(t.data[start:t.pos])
}

func (t *contentTokenizer) readNumber() float64 {
	start := t.pos
	if t.data[t.pos] == '+' || t.data[t.pos] == '-' {
		t.pos++
	}
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			t.pos++
			continue
		}
		break
	}
	v, _ := strconv.ParseFloat(string(t.data[start:t.pos]), 64)
	return v
}

// readLiteralString consumes a (…) string after the opening parenthesis,
// honouring nested parentheses, escape sequences and octal codes.
func (t *contentTokenizer) readLiteralString() []byte {
	var out []byte
	depth := 1
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch c {
		case '\\':
			t.pos++
			if t.pos >= len(t.data) {
				return out
			}
			e := t.data[t.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, e)
			case '\n':
				// Line continuation.
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for k := 0; k < 2 && t.pos+1 < len(t.data); k++ {
						nx := t.data[t.pos+1]
						if nx < '0' || nx > '7' {
							break
						}
						t.pos++
						val = val*8 + int(nx-'0')
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			t.pos++
		case '(':
			depth++
			out = append(out, c)
			t.pos++
		case ')':
			depth--
			t.pos++
			if depth == 0 {
				return out
			}
			out = append(out, c)
		default:
			out = append(out, c)
			t.pos++
		}
	}
	return out
}

func (t *contentTokenizer) readHexString() []byte {
	var out []byte
	var hi byte
	have := false
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		t.pos++
		if c == '>' {
			break
		}
		v, ok := hexVal(c)
		if !ok {
			continue
		}
		if have {
			out = append(out, hi<<4|v)
			have = false
		} else {
			hi = v
			have = true
		}
	}
	if have {
		out = append(out, hi<<4)
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// readArray consumes tokens up to the matching ] and returns strings and
// numbers in order (the shape TJ needs).
func (t *contentTokenizer) readArray() []any {
	var arr []any
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch {
		case isWhitespace(c):
			t.pos++
		case c == ']':
			t.pos++
			return arr
		case c == '(':
			t.pos++
			arr = append(arr, t.readLiteralString())
		case c == '<':
			t.pos++
			arr = append(arr, t.readHexString())
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			arr = append(arr, t.readNumber())
		default:
			t.pos++
		}
	}
	return arr
}

func (t *contentTokenizer) skipDict() {
	depth := 0
	for t.pos+1 < len(t.data) {
		if t.data[t.pos] == '<' && t.data[t.pos+1] == '<' {
			depth++
			t.pos += 2
			continue
		}
		if t.data[t.pos] == '>' && t.data[t.pos+1] == '>' {
			depth--
			t.pos += 2
			if depth == 0 {
				return
			}
			continue
		}
		t.pos++
	}
	t.pos = len(t.data)
}

// skipInlineImage advances past an inline image's binary payload, up to
// and including the EI marker.
func (t *contentTokenizer) skipInlineImage() {
	for t.pos+1 < len(t.data) {
		if t.data[t.pos] == 'E' && t.data[t.pos+1] == 'I' {
			prevOK := t.pos == 0 || isWhitespace(t.data[t.pos-1])
			nextOK := t.pos+2 >= len(t.data) || isWhitespace(t.data[t.pos+2])
			if prevOK && nextOK {
				t.pos += 2
				return
			}
		}
		t.pos++
	}
	t.pos = len(t.data)
}
