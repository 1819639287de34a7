package coding

import "fmt"

// Split breaks value into segments that each encode into a field of size
// bytes without truncation, terminator included.
//
// A segment that ends in a page other than the default hands that page on:
// the next segment starts with '^' and the page selector unless the input
// already switches there or the next character is not in that page. A
// switch is never separated from its selector.
func (c *Codec) Split(value string, size int) (segments []string, err error) {
	if value == "" {
		return nil, nil
	}
	if size < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFieldTooSmall, size)
	}

	points := []rune(value)
	scratch := make([]byte, size)
	def := c.registry.Default().Selector()

	var carry []rune
	for start := 0; start < len(points); {
		chunk := make([]rune, 0, len(carry)+len(points)-start)
		chunk = append(chunk, carry...)
		chunk = append(chunk, points[start:]...)

		st := c.EncodeStats(string(chunk), scratch, 0, size)
		n := st.Consumed
		if n < len(chunk) && n > len(carry) && c.isSwitch(chunk, n-1) {
			n--
			st = c.EncodeStats(string(chunk[:n]), scratch, 0, size)
		}
		if n <= len(carry) {
			if carry != nil {
				carry = nil
				continue
			}
			return segments, fmt.Errorf("%w: %d bytes", ErrFieldTooSmall, size)
		}

		segments = append(segments, string(chunk[:n]))
		start += n - len(carry)

		carry = nil
		if st.Page != def && start < len(points) && !c.isSwitch(points, start) &&
			c.encodesIn(st.Page, points[start]) {
			carry = []rune{ControlChar, rune(st.Page)}
		}
	}
	return segments, nil
}

// isSwitch reports whether points[i:] starts with a code page switch.
func (c *Codec) isSwitch(points []rune, i int) bool {
	return points[i] == ControlChar && i+1 < len(points) && c.registry.IsSelector(points[i+1])
}

// encodesIn reports whether ch converts under the page named by selector.
func (c *Codec) encodesIn(selector byte, ch rune) bool {
	p, ok := c.registry.Lookup(selector)
	return ok && !conversionFailed(p.Encode(string(ch)))
}
