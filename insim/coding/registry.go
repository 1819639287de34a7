package coding

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// ControlChar starts a code page switch when followed by a registered selector.
const ControlChar = '^'

// DefaultSelector is the page every decode and encode call starts in.
const DefaultSelector = 'L'

// Registry is a fixed, ordered set of code pages keyed by selector.
// It is never mutated after construction.
type Registry struct {
	pages []*CodePage
	index [128]*CodePage
	def   *CodePage
}

// DefaultRegistry holds the code pages LFS understands. Order matters:
// the encoder's fallback search walks it front to back.
var DefaultRegistry = mustRegistry(DefaultSelector,
	NewSingleBytePage('L', "Latin-1", charmap.Windows1252),
	NewSingleBytePage('G', "Greek", charmap.Windows1253),
	NewSingleBytePage('C', "Cyrillic", charmap.Windows1251),
	NewDoubleBytePage('J', "Japanese", japanese.ShiftJIS),
	NewSingleBytePage('E', "Central European", charmap.Windows1250),
	NewSingleBytePage('T', "Turkish", charmap.Windows1254),
	NewSingleBytePage('B', "Baltic", charmap.Windows1257),
	NewDoubleBytePage('H', "Traditional Chinese", traditionalchinese.Big5),
	NewDoubleBytePage('S', "Simplified Chinese", simplifiedchinese.GBK),
	NewDoubleBytePage('K', "Korean", korean.EUCKR),
)

// NewRegistry builds a registry over pages in the given order. def must
// be the selector of one of the pages.
func NewRegistry(def byte, pages ...*CodePage) (*Registry, error) {
	r := &Registry{pages: make([]*CodePage, 0, len(pages))}
	for _, p := range pages {
		if !isASCIILetter(p.selector) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, p.selector)
		}
		if r.index[p.selector] != nil {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSelector, p.selector)
		}
		r.index[p.selector] = p
		r.pages = append(r.pages, p)
	}
	if def >= 128 || r.index[def] == nil {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownSelector, def)
	}
	r.def = r.index[def]
	return r, nil
}

func mustRegistry(def byte, pages ...*CodePage) *Registry {
	r, err := NewRegistry(def, pages...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the page registered for selector.
func (r *Registry) Lookup(selector byte) (*CodePage, bool) {
	if selector >= 128 {
		return nil, false
	}
	p := r.index[selector]
	return p, p != nil
}

// IsSelector reports whether ch selects a registered page.
func (r *Registry) IsSelector(ch rune) bool {
	return ch >= 0 && ch < 128 && r.index[ch] != nil
}

// Default returns the page active at the start of every call.
func (r *Registry) Default() *CodePage { return r.def }

// Pages returns the pages in definition order.
func (r *Registry) Pages() []*CodePage {
	out := make([]*CodePage, len(r.pages))
	copy(out, r.pages)
	return out
}

func isASCIILetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}
