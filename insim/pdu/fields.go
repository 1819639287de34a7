package pdu

import (
	"fmt"
	"sort"
	"strings"
)

// MaxFieldSize bounds explicit field sizes; the largest InSim text field
// (IS_BTN) is 240 bytes.
const MaxFieldSize = 240

// Field is a fixed size text field inside an InSim packet.
type Field struct {
	Packet string `json:"packet"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

// Key returns "PACKET.Name", the form LookupField accepts.
func (f Field) Key() string {
	return f.Packet + "." + f.Name
}

// Fields lists the text fields that carry codec encoded strings.
var Fields = []Field{
	{Packet: "ISI", Name: "Admin", Size: 16},
	{Packet: "ISI", Name: "IName", Size: 16},
	{Packet: "VER", Name: "Version", Size: 8},
	{Packet: "VER", Name: "Product", Size: 6},
	{Packet: "STA", Name: "Track", Size: 6},
	{Packet: "RST", Name: "Track", Size: 6},
	{Packet: "MSO", Name: "Msg", Size: 128},
	{Packet: "MST", Name: "Msg", Size: 64},
	{Packet: "MSX", Name: "Msg", Size: 96},
	{Packet: "MSL", Name: "Msg", Size: 128},
	{Packet: "MTC", Name: "Text", Size: 128},
	{Packet: "NCN", Name: "UName", Size: 24},
	{Packet: "NCN", Name: "PName", Size: 24},
	{Packet: "NPL", Name: "PName", Size: 24},
	{Packet: "NPL", Name: "Plate", Size: 8},
	{Packet: "NPL", Name: "SName", Size: 16},
	{Packet: "CPR", Name: "PName", Size: 24},
	{Packet: "CPR", Name: "Plate", Size: 8},
	{Packet: "BTN", Name: "Text", Size: 240},
}

var fieldIndex = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[strings.ToUpper(f.Key())] = f
	}
	return m
}()

// LookupField finds a field by "PACKET.Name", ignoring case.
func LookupField(key string) (Field, error) {
	f, ok := fieldIndex[strings.ToUpper(strings.TrimSpace(key))]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return f, nil
}

// ResolveSize picks the byte size for a request that names either a field
// or an explicit size. A named field wins.
func ResolveSize(key string, size int) (int, error) {
	if key != "" {
		f, err := LookupField(key)
		if err != nil {
			return 0, err
		}
		return f.Size, nil
	}
	if size < 2 || size > MaxFieldSize {
		return 0, fmt.Errorf("%w: %d (want 2..%d)", ErrInvalidFieldSize, size, MaxFieldSize)
	}
	return size, nil
}

// Keys returns every field key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Fields))
	for _, f := range Fields {
		keys = append(keys, f.Key())
	}
	sort.Strings(keys)
	return keys
}
