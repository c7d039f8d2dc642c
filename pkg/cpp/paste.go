// paste.go implements the ## operator: concatenating the spellings of
// two adjacent tokens and re-tokenizing the result.
package cpp

import "fmt"

// PasteTokens implements the ## operator on a single pair of operands. If
// either operand is EMPTY_ARG, the other is returned unchanged except that
// it takes l's LeadingWhitespace. Otherwise the two operands'
// textual forms are concatenated with no separator and re-tokenized; the
// retokenization must consume the whole buffer and yield exactly one
// token, or pasting is a fatal error. The result inherits l's
// LeadingWhitespace.
func PasteTokens(l, r Token) (Token, error) {
	if l.Kind == EMPTY_ARG && r.Kind == EMPTY_ARG {
		// Both operands vanish; pasteReplacementList handles this case
		// before calling PasteTokens, but stay defined for direct callers.
		return Token{Kind: EMPTY_ARG}, nil
	}
	if l.Kind == EMPTY_ARG {
		out := r
		out.LeadingWhitespace = l.LeadingWhitespace
		return out, nil
	}
	if r.Kind == EMPTY_ARG {
		return l, nil
	}

	text := spelling(l) + spelling(r)
	toks := retokenize(text, l.Loc)
	if len(toks) != 1 {
		return Token{}, fmt.Errorf("%s:%d: invalid token resulting from pasting %q and %q",
			l.Loc.File, l.Loc.Line, spelling(l), spelling(r))
	}
	out := toks[0]
	out.LeadingWhitespace = l.LeadingWhitespace
	return out, nil
}

// retokenize lexes text (the concatenation of two pasted spellings) in
// isolation and returns its tokens, all stamped with loc.
func retokenize(text string, loc SourceLoc) TokenArray {
	if text == "" {
		return nil
	}
	lex := NewLexer(text, loc.File)
	var toks TokenArray
	for {
		tok := lex.NextToken()
		if tok.Kind == END || tok.Kind == NEWLINE {
			break
		}
		tok.Loc = loc
		tok.LeadingWhitespace = 0
		toks = append(toks, tok)
	}
	return toks
}

// pasteReplacementList resolves every TOKEN_PASTE operator in a
// substituted replacement list, left to right. EMPTY_ARG tokens that
// survive pasting are dropped from the result.
func pasteReplacementList(toks TokenArray) (TokenArray, error) {
	out := make(TokenArray, 0, len(toks))
	i := 0
	for i < len(toks) {
		if toks[i].Kind == TOKEN_PASTE {
			if len(out) == 0 {
				return nil, fmt.Errorf("'##' cannot appear at the start of a replacement list")
			}
			if i+1 >= len(toks) {
				return nil, fmt.Errorf("'##' cannot appear at the end of a replacement list")
			}
			l := out[len(out)-1]
			r := toks[i+1]
			if l.Kind == EMPTY_ARG && r.Kind == EMPTY_ARG {
				out = out[:len(out)-1]
				i += 2
				continue
			}
			pasted, err := PasteTokens(l, r)
			if err != nil {
				return nil, err
			}
			out[len(out)-1] = pasted
			i += 2
			continue
		}
		out = append(out, toks[i])
		i++
	}

	filtered := out[:0]
	for _, t := range out {
		if t.Kind != EMPTY_ARG {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}
