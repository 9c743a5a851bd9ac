package syntax

import (
	"strings"
	"unicode/utf8"

	"github.com/you-not-fish/lygos/internal/src"
)

// source walks the bytes of one file. ch is the character at offset
// r and next is the offset just past it; line and col locate ch.
type source struct {
	filename string
	buf      []byte

	ch        rune // -1 at EOF
	r, next   int
	line, col uint32

	errh func(line, col uint32, msg string)
}

// newSource positions a source on the first character of buf. errh
// receives encoding errors and may be nil.
func newSource(filename string, buf []byte, errh func(line, col uint32, msg string)) *source {
	s := &source{filename: filename, buf: buf, line: 1, col: 1, errh: errh}
	s.decode()
	return s
}

// decode loads the character at s.next into ch.
func (s *source) decode() {
	s.r = s.next
	if s.r >= len(s.buf) {
		s.ch = -1
		return
	}
	c, w := rune(s.buf[s.r]), 1
	if c >= utf8.RuneSelf {
		c, w = utf8.DecodeRune(s.buf[s.r:])
		if c == utf8.RuneError && w == 1 {
			s.error("invalid UTF-8 encoding")
		}
	}
	s.ch = c
	s.next = s.r + w
}

// nextch advances to the next character.
func (s *source) nextch() {
	switch {
	case s.ch < 0:
		return
	case s.ch == '\n':
		s.line++
		s.col = 1
	default:
		s.col++
	}
	s.decode()
}

// peek returns the byte after ch, or 0 at the end of the file.
func (s *source) peek() byte {
	if s.next < len(s.buf) {
		return s.buf[s.next]
	}
	return 0
}

func (s *source) pos() src.Pos {
	return src.NewPos(s.filename, s.line, s.col)
}

func (s *source) error(msg string) {
	if s.errh != nil {
		s.errh(s.line, s.col, msg)
	}
}

func isLetter(r rune) bool {
	return 'a' <= lower(r) && lower(r) <= 'z' || r == '_'
}

func isDigit(r rune) bool       { return '0' <= r && r <= '9' }
func isOctalDigit(r rune) bool  { return '0' <= r && r <= '7' }
func isBinaryDigit(r rune) bool { return r == '0' || r == '1' }

func isHexDigit(r rune) bool {
	return isDigit(r) || 'a' <= lower(r) && lower(r) <= 'f'
}

// lower maps ASCII upper case letters to lower case. Other characters
// may map to arbitrary values and are only compared against letters.
func lower(r rune) rune { return ('a' - 'A') | r }

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// operatorStarts lists the characters that begin an operator, a
// delimiter, a macro call or a directive.
const operatorStarts = "+-*/%&|<>=!:()[]{},;.$#"

func isOperatorStart(r rune) bool {
	return r > 0 && r < utf8.RuneSelf && strings.ContainsRune(operatorStarts, r)
}
