// Package cpp implements the macro expansion engine of a C preprocessor:
// a table of object-like and function-like macro definitions, and a
// rewriter that recursively replaces identifiers bound to macros with
// their (possibly argument-substituted, stringified, and token-pasted)
// replacement lists.
package cpp

import "fmt"

// Kind identifies the lexical category of a Token. Single-character
// punctuators are encoded as their own byte value (Kind('('), Kind(','),
// Kind('#'), ...) so that a grammar check can compare directly against the
// rune literal instead of a named constant. Named kinds and multi-character
// punctuators live above the byte range.
type Kind int32

const (
	IDENTIFIER Kind = 0x100 + iota
	NUMBER      // evaluated numeric token (typed payload in Num)
	PREP_NUMBER // raw preprocessing-number spelling (e.g. from __LINE__)
	STRING
	CHAR_CONST
	NEWLINE
	END         // end of input
	PARAM       // placeholder for a macro parameter (payload: Param index)
	EMPTY_ARG   // sentinel for a missing/empty macro argument
	TOKEN_PASTE // ## operator
	PUNCT       // multi-character punctuator; spelling lives in Text
)

func (k Kind) String() string {
	switch k {
	case IDENTIFIER:
		return "IDENTIFIER"
	case NUMBER:
		return "NUMBER"
	case PREP_NUMBER:
		return "PREP_NUMBER"
	case STRING:
		return "STRING"
	case CHAR_CONST:
		return "CHAR_CONST"
	case NEWLINE:
		return "NEWLINE"
	case END:
		return "END"
	case PARAM:
		return "PARAM"
	case EMPTY_ARG:
		return "EMPTY_ARG"
	case TOKEN_PASTE:
		return "TOKEN_PASTE"
	case PUNCT:
		return "PUNCT"
	default:
		if k >= 0 && k < 0x100 {
			return fmt.Sprintf("%q", string(rune(k)))
		}
		return "UNKNOWN"
	}
}

// punctKind returns the Kind for a punctuator spelling: the literal byte
// value for single-character spellings, or the generic PUNCT bucket for
// multi-character ones (->, ==, <<, ...).
func punctKind(text string) Kind {
	if len(text) == 1 {
		return Kind(text[0])
	}
	return PUNCT
}

// NumberValue is the typed payload of a NUMBER token, carrying enough of
// the C numeric-literal model for bitwise equality checks: floats compare
// by F, integers by I, and operands of differing Float/Unsigned
// discriminant are never equal.
type NumberValue struct {
	Float    bool
	Unsigned bool
	I        uint64
	F        float64
}

// SourceLoc is a position in a source file.
type SourceLoc struct {
	File   string
	Line   int
	Column int
}

// Token is a single preprocessing token.
type Token struct {
	Kind              Kind
	Text              string // spelling; for PREP_NUMBER, the literal run of characters
	LeadingWhitespace int    // count of spaces logically preceding this token
	Loc               SourceLoc

	Param int         // valid when Kind == PARAM: zero-based parameter index
	Num   NumberValue // valid when Kind == NUMBER
}

// TokenArray is an ordered, growable sequence of tokens. It is realized
// as Go's native slice, which already supports append, concatenation,
// slicing, and truncation; TokenArrayPool recycles its backing storage.
type TokenArray = []Token

// ReplaceSlice replaces dst[lo:hi] with repl, shifting the remaining tail
// into place, and returns the resulting array. dst's backing array is
// reused unless it is too small for the result, in which case it is
// grown first. Rewriter builds a fresh result slice instead of splicing,
// so this is exposed for callers (a directive-line rewriter, say) that
// need literal in-place semantics.
func ReplaceSlice(dst TokenArray, lo, hi int, repl TokenArray) TokenArray {
	oldLen := len(dst)
	newLen := oldLen - (hi - lo) + len(repl)
	if newLen > cap(dst) {
		grown := make(TokenArray, oldLen, newLen)
		copy(grown, dst)
		dst = grown
	}
	out := dst[:max(oldLen, newLen)]
	copy(out[lo+len(repl):], out[hi:oldLen])
	copy(out[lo:], repl)
	return out[:newLen]
}

// TokensToString joins tokens' spellings back into source text.
func TokensToString(tokens TokenArray) string {
	var out []byte
	for _, tok := range tokens {
		if tok.LeadingWhitespace > 0 && len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, spelling(tok)...)
	}
	return string(out)
}

// spelling returns a token's textual form, the representation used by
// both TokensToString and the Stringifier for non-string/char tokens.
func spelling(tok Token) string {
	switch tok.Kind {
	case EMPTY_ARG:
		return ""
	case PREP_NUMBER, IDENTIFIER, STRING, CHAR_CONST, PUNCT:
		return tok.Text
	case NEWLINE:
		return "\n"
	default:
		if tok.Kind >= 0 && tok.Kind < 0x100 {
			return string(rune(tok.Kind))
		}
		return tok.Text
	}
}

// TokCmp compares two tokens for equality: kinds must match, and then
// PARAM compares parameter indices, NUMBER compares the typed numeric
// payload (signedness-sensitive), and every other kind compares string
// payloads. Returns 0 when equal, non-zero otherwise (no ordering is
// implied beyond that).
func TokCmp(a, b Token) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	switch a.Kind {
	case PARAM:
		return a.Param - b.Param
	case NUMBER:
		if a.Num.Float != b.Num.Float || a.Num.Unsigned != b.Num.Unsigned {
			return 1
		}
		if a.Num.Float {
			if a.Num.F == b.Num.F {
				return 0
			}
			return 1
		}
		if a.Num.I == b.Num.I {
			return 0
		}
		return 1
	default:
		if a.Text == b.Text {
			return 0
		}
		return 1
	}
}

// tokensEqual compares two token slices element-wise with TokCmp.
func tokensEqual(a, b TokenArray) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if TokCmp(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}
