package coding

import "strings"

// Decode converts the bytes in buf[index:index+length] to a string.
//
// Decoding stops at the first 0x00. A '^' followed by a registered
// selector switches the active page; the escape bytes are decoded under
// the new page, so they appear literally in the result. The selector byte
// is looked up against the whole buffer, even when it lies just past the
// region.
func (c *Codec) Decode(buf []byte, index, length int) string {
	start, end := clampWindow(len(buf), index, length)
	if start == end {
		return ""
	}

	var out strings.Builder
	out.Grow(end - start)

	page := c.registry.Default()
	runStart := start
	i := start
	for ; i < end; i++ {
		b := buf[i]
		if b == 0 {
			break
		}
		if b != ControlChar || i+1 >= len(buf) {
			continue
		}
		next, ok := c.registry.Lookup(buf[i+1])
		if !ok {
			continue
		}
		out.WriteString(page.Decode(buf[runStart:i]))
		runStart = i
		page = next
	}

	if i > runStart {
		out.WriteString(page.Decode(buf[runStart:i]))
	}
	return out.String()
}

// DecodeField decodes a whole field, stopping at its null terminator.
func (c *Codec) DecodeField(field []byte) string {
	return c.Decode(field, 0, len(field))
}
