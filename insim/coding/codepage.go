package coding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Width is the byte width family of a code page.
type Width int

const (
	SingleByte Width = iota + 1
	DoubleByte
)

func (w Width) String() string {
	switch w {
	case SingleByte:
		return "single-byte"
	case DoubleByte:
		return "double-byte"
	default:
		return "unknown"
	}
}

// failureMarker replaces any character a code page cannot represent.
// None of the double-byte pages produce "??" for a real character.
var failureMarker = []byte{'?', '?'}

// CodePage converts between Unicode text and one legacy code page.
// Values are immutable and safe for concurrent use; every conversion
// builds its own transformer.
type CodePage struct {
	selector byte
	name     string
	width    Width
	enc      encoding.Encoding
}

// NewSingleBytePage wraps a Windows style charmap.
func NewSingleBytePage(selector byte, name string, cm *charmap.Charmap) *CodePage {
	return &CodePage{selector: selector, name: name, width: SingleByte, enc: cm}
}

// NewDoubleBytePage wraps a CJK multi-byte encoding.
func NewDoubleBytePage(selector byte, name string, enc encoding.Encoding) *CodePage {
	return &CodePage{selector: selector, name: name, width: DoubleByte, enc: enc}
}

// Selector returns the ASCII letter that selects this page after the control character.
func (p *CodePage) Selector() byte { return p.selector }

func (p *CodePage) Name() string { return p.name }

func (p *CodePage) Width() Width { return p.width }

// Decode converts raw page bytes to text. Invalid sequences become U+FFFD.
func (p *CodePage) Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// the x/text decoders substitute U+FFFD instead of failing, so a
	// partial result is still the best available text
	out, _ := p.enc.NewDecoder().Bytes(b)
	return string(out)
}

// Encode converts text to page bytes, replacing each character the page
// cannot represent with the two byte marker "??".
func (p *CodePage) Encode(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	enc := p.enc.NewEncoder()
	var scratch [4]byte
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		n := utf8.EncodeRune(scratch[:], r)
		b, err := enc.Bytes(scratch[:n])
		if err != nil || len(b) == 0 {
			out = append(out, failureMarker...)
			continue
		}
		out = append(out, b...)
	}
	return out
}
