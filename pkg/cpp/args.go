// args.go collects a fixed-arity, comma-separated, parenthesis-balanced
// macro argument list from a token stream.
package cpp

import "fmt"

// ReadArguments parses arity comma-separated arguments starting at
// tokens[startIdx], which must be the token immediately after the macro
// invocation's opening '('. It returns one TokenArray per parameter (a
// missing argument is the single-token EMPTY_ARG sentinel) and the index
// of the token immediately after the matching ')'.
func ReadArguments(tokens TokenArray, startIdx int, arity int) ([]TokenArray, int, error) {
	i := startIdx
	depth := 1
	var args []TokenArray
	var current TokenArray

	flush := func() {
		if len(current) == 0 {
			args = append(args, TokenArray{{Kind: EMPTY_ARG}})
		} else {
			args = append(args, current)
		}
		current = nil
	}

	for i < len(tokens) {
		tok := tokens[i]

		switch tok.Kind {
		case NEWLINE:
			return nil, 0, fmt.Errorf("%s:%d: unexpected end of input in macro expansion", tok.Loc.File, tok.Loc.Line)
		case Kind('('):
			depth++
			current = append(current, tok)
		case Kind(')'):
			depth--
			if depth < 0 {
				return nil, 0, fmt.Errorf("%s:%d: unbalanced ')' in macro argument list", tok.Loc.File, tok.Loc.Line)
			}
			if depth == 0 {
				// A zero-arity macro invoked as F() takes no arguments at
				// all; any other arity treats "nothing between the
				// separators" as one EMPTY_ARG argument.
				if arity == 0 && len(args) == 0 && len(current) == 0 {
					return args, i + 1, nil
				}
				flush()
				if len(args) != arity {
					return nil, 0, fmt.Errorf("%s:%d: macro requires %d argument(s), got %d",
						tok.Loc.File, tok.Loc.Line, arity, len(args))
				}
				return args, i + 1, nil
			}
			current = append(current, tok)
		case Kind(','):
			if depth == 1 {
				flush()
			} else {
				current = append(current, tok)
			}
		default:
			current = append(current, tok)
		}
		i++
	}

	return nil, 0, fmt.Errorf("unterminated macro argument list")
}
