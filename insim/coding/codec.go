// Package coding converts between Unicode strings and the multi code page
// byte strings carried in InSim text fields.
//
// A field starts in the Latin-1 page. The two characters '^' and a page
// selector switch the page for everything that follows; the escape itself
// stays in the text, so "^JＬＦＳ" survives a round trip unchanged.
package coding

// Codec decodes and encodes InSim text fields over a Registry.
// It holds no per call state and is safe for concurrent use.
type Codec struct {
	registry *Registry
}

// Default is the codec over DefaultRegistry.
var Default = NewCodec(DefaultRegistry)

func NewCodec(r *Registry) *Codec {
	return &Codec{registry: r}
}

// Registry returns the registry the codec was built with.
func (c *Codec) Registry() *Registry { return c.registry }

// Decode decodes buf[index:index+length] with the default codec.
func Decode(buf []byte, index, length int) string {
	return Default.Decode(buf, index, length)
}

// Encode encodes value into buf[index:index+length] with the default codec.
func Encode(value string, buf []byte, index, length int) int {
	return Default.Encode(value, buf, index, length)
}

// EncodeField encodes value into a new zeroed field of size bytes.
func EncodeField(value string, size int) []byte {
	return Default.EncodeField(value, size)
}

// DecodeField decodes a whole fixed size field.
func DecodeField(field []byte) string {
	return Default.DecodeField(field)
}

// Split breaks value into chunks that each fit a field of size bytes.
func Split(value string, size int) ([]string, error) {
	return Default.Split(value, size)
}

// clampWindow restricts [index, index+length) to the bounds of a buffer of size n.
func clampWindow(n, index, length int) (start, end int) {
	if index < 0 || length <= 0 || index >= n {
		return 0, 0
	}
	end = index + length
	if end > n || end < index {
		end = n
	}
	return index, end
}
