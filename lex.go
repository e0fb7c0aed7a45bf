package symexpr

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is an integer, decimal, scientific, or radix-prefixed token.
	tokenNum
	// tokenStr is a quoted string literal, with escapes already decoded.
	tokenStr
	// tokenIdent is a variable, function, or keyword name.
	tokenIdent
	// tokenOp is an operator, possibly multi-rune.
	tokenOp
	// tokenOpen is an open bracket: ( [ {.
	tokenOpen
	// tokenClose is a close bracket: ) ] }.
	tokenClose
	// tokenSep is an argument or entry separator, either , or :.
	tokenSep
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenEOF:
		return "EOF"
	case tokenNum:
		return "Num"
	case tokenStr:
		return "Str"
	case tokenIdent:
		return "Ident"
	case tokenOp:
		return "Op"
	case tokenOpen:
		return "Open"
	case tokenClose:
		return "Close"
	case tokenSep:
		return "Sep"
	}
	return "tokenKind(" + strconv.Itoa(int(k)) + ")"
}

// twoRuneOps holds the operators the lexer tries before their one-rune
// prefixes. The lexer munches maximally: <= never lexes as < followed by =.
var twoRuneOps = []string{"??", "||", "&&", "==", "!=", "<=", ">=", "<<", ">>"}

// singleOps contains the runes which are operators on their own.
const singleOps = "+-*/%^<>!~?&|=."

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// A bracket at byte position k in OpenBrackets matches the bracket at byte
// position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

func byteidcs(s string) []string {
	v := make([]string, len(s))
	for i, r := range s {
		v[i] = string(r)
	}
	return v
}

var (
	openbrackets  = byteidcs(OpenBrackets)
	closebrackets = byteidcs(CloseBrackets)
)

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	p    lexToken
	eof  bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. Panics
// if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("symexpr: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("symexpr: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input. The first time EOF is encountered,
// the result is an EOF token with a nil error. Subsequent times, if the EOF
// token is not pushed, the result is an empty token with io.EOF.
func (l *lexer) next() (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		return tok, nil
	}
	if l.eof {
		return lexToken{}, io.EOF
	}
	defer l.buf.Reset()
	tok := lexToken{pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case unicode.IsSpace(r):
			tok.pos++
			continue
		case '0' <= r && r <= '9':
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '.':
			// A dot starts a number only when a digit follows; otherwise it
			// is the member access operator.
			d, derr := l.readRune()
			if derr == nil {
				l.unreadRune()
			}
			if derr == nil && '0' <= d && d <= '9' {
				l.buf.WriteByte('.')
				if err := l.scanNumBody(false, true, false, false, false); err != nil {
					return tok, err
				}
				tok.text = l.buf.String()
				tok.kind = tokenNum
				return tok, nil
			}
			tok.text = "."
			tok.kind = tokenOp
			return tok, nil
		case r == '_', r == '$', unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenIdent
			return tok, nil
		case r == '\'', r == '"':
			if err := l.scanString(r); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenStr
			return tok, nil
		case r == ',':
			tok.text = ","
			tok.kind = tokenSep
			return tok, nil
		case r == ':':
			tok.text = ":"
			tok.kind = tokenSep
			return tok, nil
		default:
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				tok.text = openbrackets[k]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				tok.text = closebrackets[k]
				tok.kind = tokenClose
				return tok, nil
			}
			if strings.ContainsRune(singleOps, r) {
				tok.text = l.scanOp(r)
				tok.kind = tokenOp
				return tok, nil
			}
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return tok, l.error("")
		}
	}
}

// scanOp munches the longest operator beginning with r.
func (l *lexer) scanOp(r rune) string {
	s, err := l.readRune()
	if err != nil {
		return string(r)
	}
	two := string(r) + string(s)
	for _, op := range twoRuneOps {
		if op == two {
			return op
		}
	}
	l.unreadRune()
	return string(r)
}

func (l *lexer) scanNum() error {
	// Radix-prefixed literals have their own alphabet. Only one rune of
	// pushback is guaranteed, so the leading zero is consumed here rather
	// than unread.
	var dig, dot, e, le, ed bool
	r, err := l.readRune()
	if err != nil {
		return err
	}
	if r == '0' {
		s, serr := l.readRune()
		if serr == nil {
			switch s {
			case 'x', 'X', 'o', 'O', 'b', 'B':
				l.buf.WriteRune(r)
				l.buf.WriteRune(s)
				return l.scanRadixDigits(s)
			default:
				l.unreadRune()
			}
		}
		l.buf.WriteRune(r)
		dig = true
	} else {
		l.unreadRune()
	}
	return l.scanNumBody(dig, dot, e, le, ed)
}

// scanNumBody scans the remainder of a decimal number. The flags carry the
// state already established by the caller: a digit seen, a dot seen, an
// exponent marker seen, an exponent marker just seen, and an exponent digit
// seen.
func (l *lexer) scanNumBody(dig, dot, e, le, ed bool) error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if r == '+' || r == '-' {
			// + or - anywhere other than immediately following an exponent
			// marker means a new token, as it is an operator.
			if !le {
				l.unreadRune()
				break
			}
			le = false
			l.buf.WriteRune(r)
			continue
		}
		switch {
		case r == '.':
			if dot || e {
				l.buf.WriteRune(r)
				return l.error("number")
			}
			dot = true
			le = false
			l.buf.WriteRune(r)
		case r == 'e' || r == 'E':
			if !dig || e {
				l.buf.WriteRune(r)
				return l.error("number")
			}
			e = true
			le = true
			l.buf.WriteRune(r)
		case '0' <= r && r <= '9':
			if e {
				ed = true
			} else {
				dig = true
			}
			le = false
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			if (!dig && !ed) || (e && !ed) {
				return l.error("number")
			}
			return nil
		}
	}
	if (!dig && !ed) || (e && !ed) {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanRadixDigits(marker rune) error {
	ok := func(r rune) bool {
		switch marker {
		case 'x', 'X':
			return '0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
		case 'o', 'O':
			return '0' <= r && r <= '7'
		default:
			return r == '0' || r == '1'
		}
	}
	n := 0
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if !ok(r) {
			l.unreadRune()
			break
		}
		l.buf.WriteRune(r)
		n++
	}
	if n == 0 {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case r == '_', r == '$', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

// scanString scans a quoted string literal, decoding the fixed escape set.
func (l *lexer) scanString(quote rune) error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return l.error("string")
			}
			return err
		}
		switch r {
		case quote:
			return nil
		case '\\':
			e, err := l.readRune()
			if err != nil {
				return l.error("string")
			}
			switch e {
			case 'n':
				l.buf.WriteByte('\n')
			case 'r':
				l.buf.WriteByte('\r')
			case 't':
				l.buf.WriteByte('\t')
			case 'b':
				l.buf.WriteByte('\b')
			case 'f':
				l.buf.WriteByte('\f')
			case 'v':
				l.buf.WriteByte('\v')
			case '"':
				l.buf.WriteByte('"')
			case '\'':
				l.buf.WriteByte('\'')
			case '\\':
				l.buf.WriteByte('\\')
			default:
				l.buf.WriteRune(e)
				return l.error("string")
			}
		default:
			l.buf.WriteRune(r)
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.rune,
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number",
	// "string", or the empty string (if a token kind hadn't been decided).
	Kind string
	// Col is the total number of runes scanned by the lexer up to and
	// including this error.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}
