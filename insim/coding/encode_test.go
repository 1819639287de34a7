package coding

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want []byte
	}{
		{
			name: "ascii",
			in:   "AB",
			want: []byte("AB"),
		},
		{
			name: "western",
			in:   "café",
			want: []byte{'c', 'a', 'f', 0xE9},
		},
		{
			name: "explicit switch",
			in:   "^GΩ",
			want: []byte{'^', 'G', 0xD9},
		},
		{
			name: "fallback to greek",
			in:   "Ω",
			want: []byte{'^', 'G', 0xD9},
		},
		{
			name: "fallback skips pages without the character",
			in:   "Ж",
			want: []byte{'^', 'C', 0xC6},
		},
		{
			name: "fallback to double byte page",
			in:   "あ",
			want: []byte{'^', 'J', 0x82, 0xA0},
		},
		{
			name: "page sticks after fallback",
			in:   "ЖЖ",
			want: []byte{'^', 'C', 0xC6, 0xC6},
		},
		{
			name: "fallback back to latin",
			in:   "Жé",
			want: []byte{'^', 'C', 0xC6, '^', 'L', 0xE9},
		},
		{
			name: "unmappable everywhere",
			in:   "😀",
			want: []byte("??"),
		},
		{
			name: "unmappable after explicit switch",
			in:   "^G😀",
			want: []byte{'^', 'G', '?', '?'},
		},
		{
			name: "control char without selector",
			in:   "a^^b^",
			want: []byte("a^^b^"),
		},
		{
			name: "question marks are data",
			in:   "??",
			want: []byte("??"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, 64)
			n := Encode(tc.in, buf, 0, len(buf))
			assert.Equal(t, tc.want, buf[:n])
			assert.Equal(t, len(tc.want), Default.Len(tc.in))
		})
	}
}

func TestEncodeTruncation(t *testing.T) {
	t.Run("reserves last byte", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xFF}, 4)
		n := Encode("ABCDEF", buf, 0, 4)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte{'A', 'B', 'C', 0xFF}, buf)
	})

	t.Run("does not split a fallback", func(t *testing.T) {
		buf := make([]byte, 4)
		st := Default.EncodeStats("AЖ", buf, 0, 4)
		assert.Equal(t, 1, st.Written)
		assert.Equal(t, 1, st.Consumed)
		assert.True(t, st.Truncated)
		assert.Equal(t, byte('L'), st.Page)
	})

	t.Run("window inside buffer", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xFF}, 10)
		n := Encode("ABCDEF", buf, 3, 4)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 'A', 'B', 'C', 0xFF, 0xFF, 0xFF, 0xFF}, buf)
	})

	t.Run("window clamped to buffer", func(t *testing.T) {
		buf := make([]byte, 4)
		assert.Equal(t, 3, Encode("ABCDEF", buf, 0, 100))
	})

	t.Run("degenerate windows", func(t *testing.T) {
		buf := make([]byte, 4)
		assert.Equal(t, 0, Encode("A", buf, 0, 0))
		assert.Equal(t, 0, Encode("A", buf, 0, 1))
		assert.Equal(t, 0, Encode("A", buf, -2, 3))
		assert.Equal(t, 0, Encode("A", buf, 8, 3))
		assert.Equal(t, 0, Encode("", buf, 0, 4))
		assert.Equal(t, make([]byte, 4), buf)
	})

	t.Run("count always below window", func(t *testing.T) {
		for l := 1; l < 12; l++ {
			buf := make([]byte, l)
			n := Encode("^JこんにちはЖ😀", buf, 0, l)
			assert.Less(t, n, l)
		}
	})
}

func TestEncodeStats(t *testing.T) {
	buf := make([]byte, 32)
	st := Default.EncodeStats("Ж^GΩ😀", buf, 0, len(buf))
	assert.Equal(t, EncodeStats{
		Written:   8,
		Consumed:  5,
		Switches:  1,
		Fallbacks: 1,
		Unmapped:  1,
		Page:      'G',
	}, st)
	assert.Equal(t, []byte{'^', 'C', 0xC6, '^', 'G', 0xD9, '?', '?'}, buf[:st.Written])
}

func TestEncodeField(t *testing.T) {
	assert.Equal(t, []byte{'A', 'B', 0, 0}, EncodeField("AB", 4))
	assert.Equal(t, []byte{'A', 'B', 'C', 0}, EncodeField("ABCD", 4))
	assert.Empty(t, EncodeField("AB", 0))
}

func TestRoundTrip(t *testing.T) {
	testCases := []string{
		"Hello, wörld! 1+1=2",
		"a^^b^",
		"^GΚαλημέρα",
		"^CПривет",
		"^Jこんにちは",
		"^EŁódź",
		"^TİstanbuĞ",
		"^BĀŪ",
		"^H你好",
		"^S你好",
		"^K안녕",
		"^GΩ^Lé^CЖ",
	}

	for _, s := range testCases {
		t.Run(s, func(t *testing.T) {
			field := EncodeField(s, 128)
			assert.Equal(t, s, DecodeField(field))
		})
	}
}

func TestRoundTripInsertsSwitch(t *testing.T) {
	field := EncodeField("xЖy", 16)
	assert.Equal(t, "x^CЖy", DecodeField(field))

	// the decoded form encodes back to the same bytes
	again := EncodeField(DecodeField(field), 16)
	assert.Equal(t, field, again)
}

func TestConversionFailed(t *testing.T) {
	assert.True(t, conversionFailed([]byte("??")))
	assert.True(t, conversionFailed([]byte("^G??")))
	assert.False(t, conversionFailed([]byte("?")))
	assert.False(t, conversionFailed([]byte("???")))
	assert.False(t, conversionFailed([]byte{'^', 'J', 0x82, 0xA0}))
	assert.False(t, conversionFailed(nil))
}

func TestConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				field := EncodeField("^Jこんにちは", 32)
				assert.Equal(t, "^Jこんにちは", DecodeField(field))
			}
		}()
	}
	wg.Wait()
}
