package find

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/hexkit/pkg/types"
)

// DefaultCharset is used for text patterns when Options.Charset is empty.
const DefaultCharset = "UTF-8"

// aliases are names common in editors that the IANA registry does not carry.
var aliases = map[string]encoding.Encoding{
	"cp1250": charmap.Windows1250,
	"cp1251": charmap.Windows1251,
	"cp1252": charmap.Windows1252,
	"cp850":  charmap.CodePage850,
	"latin1": charmap.ISO8859_1,
	"latin2": charmap.ISO8859_2,
}

// Charset resolves an encoding by IANA name or common alias. UTF-16 names
// resolve to BOM-less encoders, since content bytes are matched in place.
// Only charsets whose characters can be located without decoding from a
// known boundary are accepted: single-byte sets, UTF-8 and UTF-16.
func Charset(name string) (encoding.Encoding, error) {
	enc, _, err := resolveCharset(name)
	return enc, err
}

var (
	utf16BE = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)
	utf16LE = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)
)

// resolveCharset also returns the code unit size in bytes. A character
// always starts at a multiple of the unit.
func resolveCharset(name string) (encoding.Encoding, int, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return xunicode.UTF8, 1, nil
	case "utf-16", "utf-16be", "utf16":
		return utf16BE, 2, nil
	case "utf-16le":
		return utf16LE, 2, nil
	}
	if enc, ok := aliases[key]; ok {
		return enc, 1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, 0, types.Errorf(types.ErrKindPattern, err, "unknown charset %q", name)
	}
	if enc == nil {
		return nil, 0, types.Errorf(types.ErrKindPattern, nil, "charset %q is not supported", name)
	}
	if _, ok := enc.(*charmap.Charmap); ok {
		return enc, 1, nil
	}
	canonical, _ := ianaindex.IANA.Name(enc)
	switch canonical {
	case "UTF-8", "US-ASCII":
		return enc, 1, nil
	case "UTF-16", "UTF-16BE":
		return utf16BE, 2, nil
	case "UTF-16LE":
		return utf16LE, 2, nil
	}
	return nil, 0, types.Errorf(types.ErrKindPattern, nil,
		"charset %q is multi-byte or stateful and cannot be searched in place", name)
}

// ParseHex converts a hex string such as "0fdA1" or "CA FE BA BE" to bytes.
// Whitespace and a leading 0x are ignored; an odd digit count is promoted to
// whole bytes with a leading zero.
func ParseHex(s string) ([]byte, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if len(digits) > 1 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	out, err := hex.DecodeString(digits)
	if err != nil {
		return nil, types.Errorf(types.ErrKindPattern, err, "hex pattern %q", s)
	}
	return out, nil
}

// matcher tests whether a pattern occurs at the start of a byte slice. Each
// pattern position holds the encodings it accepts. Matches only start at
// multiples of unit, counted from the start of the content; from such a
// boundary the accepted charsets are prefix-free, so the first hit is the
// only one.
type matcher struct {
	seq    [][][]byte
	flat   []byte // the whole pattern when every position has one encoding
	maxLen int
	minLen int
	unit   int
}

func byteMatcher(p []byte) *matcher {
	m := &matcher{flat: bytes.Clone(p), maxLen: len(p), minLen: len(p), unit: 1}
	for i := range p {
		m.seq = append(m.seq, [][]byte{p[i : i+1]})
	}
	return m
}

// textMatcher encodes text with enc. When fold is set every position also
// accepts the simple case foldings of its character that enc can represent.
func textMatcher(text string, enc encoding.Encoding, unit int, fold bool) (*matcher, error) {
	if !utf8.ValidString(text) {
		return nil, types.Errorf(types.ErrKindPattern, nil, "pattern is not valid UTF-8")
	}
	m := &matcher{unit: unit}
	single := true
	for _, r := range text {
		own, ok := encodeRune(enc, r)
		if !ok {
			return nil, types.Errorf(types.ErrKindPattern, nil, "%q cannot be represented in the charset", r)
		}
		alts := [][]byte{own}
		if fold {
			for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
				if b, ok := encodeRune(enc, f); ok && !containsBytes(alts, b) {
					alts = append(alts, b)
				}
			}
		}
		lo, hi := len(own), len(own)
		for _, a := range alts {
			lo, hi = min(lo, len(a)), max(hi, len(a))
		}
		m.minLen += lo
		m.maxLen += hi
		single = single && len(alts) == 1
		m.seq = append(m.seq, alts)
	}
	if single {
		for _, alts := range m.seq {
			m.flat = append(m.flat, alts[0]...)
		}
	}
	return m, nil
}

func encodeRune(enc encoding.Encoding, r rune) ([]byte, bool) {
	b, err := enc.NewEncoder().Bytes([]byte(string(r)))
	if err != nil || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func containsBytes(set [][]byte, b []byte) bool {
	for _, s := range set {
		if bytes.Equal(s, b) {
			return true
		}
	}
	return false
}

func (m *matcher) empty() bool { return len(m.seq) == 0 }

// at returns the byte length of the match starting at w[0], or -1.
func (m *matcher) at(w []byte) int {
	n := 0
	for _, alts := range m.seq {
		k := -1
		for _, a := range alts {
			if bytes.HasPrefix(w[n:], a) {
				k = len(a)
				break
			}
		}
		if k < 0 {
			return -1
		}
		n += k
	}
	return n
}

// first returns the first match in w that starts before limit. w[0] must
// sit on a unit boundary.
func (m *matcher) first(w []byte, limit int) (start, n int) {
	if m.flat != nil {
		for from := 0; from < limit; {
			i := bytes.Index(w[from:], m.flat)
			if i < 0 {
				break
			}
			i += from
			if i >= limit {
				break
			}
			if i%m.unit == 0 {
				return i, len(m.flat)
			}
			from = i + 1
		}
		return -1, 0
	}
	for i := 0; i < limit && i+m.minLen <= len(w); i += m.unit {
		if n := m.at(w[i:]); n >= 0 {
			return i, n
		}
	}
	return -1, 0
}

// last returns the last match in w that starts before limit. w[0] must sit
// on a unit boundary.
func (m *matcher) last(w []byte, limit int) (start, n int) {
	if m.flat != nil {
		end := min(len(w), limit-1+len(m.flat))
		for end >= len(m.flat) {
			i := bytes.LastIndex(w[:end], m.flat)
			if i < 0 {
				break
			}
			if i%m.unit == 0 {
				return i, len(m.flat)
			}
			end = i + len(m.flat) - 1
		}
		return -1, 0
	}
	i := min(limit, len(w)-m.minLen+1) - 1
	if i > 0 {
		i -= i % m.unit
	}
	for ; i >= 0; i -= m.unit {
		if n := m.at(w[i:]); n >= 0 {
			return i, n
		}
	}
	return -1, 0
}

// alignUp rounds pos up to the next unit boundary.
func (m *matcher) alignUp(pos int64) int64 {
	u := int64(m.unit)
	return (pos + u - 1) / u * u
}
