package coding

// EncodeStats describes one encode call.
type EncodeStats struct {
	Written   int  // bytes written into the window
	Consumed  int  // code points written
	Switches  int  // explicit "^X" switches taken from the input
	Fallbacks int  // switches inserted because the active page lacked a character
	Unmapped  int  // characters no page could represent, written as "??"
	Truncated bool // input was cut short by the window size
	Page      byte // selector of the page active after the last written code point
}

// Encode writes value into buf[index:index+length] and returns the number
// of bytes written.
//
// The last byte of the window is never written; it is left for the
// caller's null terminator. Encoding stops at the first character that
// would touch it. A character missing from the active page is looked up in
// the other pages in registry order, and the first page that has it is
// switched to by emitting '^' and its selector before the character.
func (c *Codec) Encode(value string, buf []byte, index, length int) int {
	return c.EncodeStats(value, buf, index, length).Written
}

// EncodeStats is Encode with a report of what happened along the way.
func (c *Codec) EncodeStats(value string, buf []byte, index, length int) EncodeStats {
	start, end := clampWindow(len(buf), index, length)
	st := EncodeStats{Page: c.registry.Default().Selector()}

	e := c.newRuneEncoder(value)
	for e.step() {
		pos := start + st.Written
		if pos+len(e.out) >= end {
			st.Truncated = true
			break
		}
		copy(buf[pos:], e.out)
		st.Written += len(e.out)
		st.Consumed++
		st.Page = e.page.Selector()
		if e.switched {
			st.Switches++
		}
		if e.fellBack {
			st.Fallbacks++
		}
		if e.unmapped {
			st.Unmapped++
		}
	}
	return st
}

// Len returns the number of bytes value encodes to, without a size limit
// and without the terminator.
func (c *Codec) Len(value string) int {
	n := 0
	e := c.newRuneEncoder(value)
	for e.step() {
		n += len(e.out)
	}
	return n
}

// EncodeField returns a zeroed field of size bytes holding value. The
// field always ends in at least one null byte.
func (c *Codec) EncodeField(value string, size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	field := make([]byte, size)
	c.Encode(value, field, 0, size)
	return field
}

// runeEncoder converts one code point per step, tracking the active page.
type runeEncoder struct {
	registry *Registry
	runes    []rune
	i        int
	page     *CodePage

	out      []byte
	switched bool
	fellBack bool
	unmapped bool
}

func (c *Codec) newRuneEncoder(value string) *runeEncoder {
	return &runeEncoder{
		registry: c.registry,
		runes:    []rune(value),
		page:     c.registry.Default(),
	}
}

func (e *runeEncoder) step() bool {
	if e.i >= len(e.runes) {
		return false
	}
	ch := e.runes[e.i]
	e.i++
	e.switched, e.fellBack, e.unmapped = false, false, false

	// The switch happens before the control character itself is encoded.
	if ch == ControlChar && e.i < len(e.runes) && e.registry.IsSelector(e.runes[e.i]) {
		e.page, _ = e.registry.Lookup(byte(e.runes[e.i]))
		e.switched = true
	}

	e.out = e.page.Encode(string(ch))
	if !conversionFailed(e.out) {
		return true
	}

	for _, p := range e.registry.pages {
		if p == e.page {
			continue
		}
		b := p.Encode(string([]rune{ControlChar, rune(p.selector), ch}))
		if !conversionFailed(b) {
			e.page = p
			e.out = b
			e.fellBack = true
			return true
		}
	}
	e.unmapped = true
	return true
}

// conversionFailed reports whether b is the "??" marker, either alone or
// after a two byte page switch.
func conversionFailed(b []byte) bool {
	return len(b) == 2 && b[0] == '?' && b[1] == '?' ||
		len(b) == 4 && b[2] == '?' && b[3] == '?'
}
