// substitute.go builds the replacement for one macro invocation from its
// definition and already-collected arguments: stringify snapshots, then
// argument pre-expansion, then parameter substitution, pasting, and a
// rescan of the result.
package cpp

import "fmt"

// substitute builds and rescans the replacement for invoking def with
// args (one TokenArray per parameter, as returned by ReadArguments).
func (r *Rewriter) substitute(def *Macro, args []TokenArray, loc SourceLoc) (TokenArray, error) {
	r.hideset[def.Name] = true
	defer delete(r.hideset, def.Name)

	// Pre-stringify snapshot: '#' must see the raw argument, before any
	// pre-expansion happens to it.
	var stringified TokenArray
	if def.Stringify {
		stringified = make(TokenArray, len(args))
		for i, a := range args {
			stringified[i] = Stringify(a)
		}
	}

	// Pre-expand arguments. A parameter immediately adjacent to '##' in
	// the replacement list is substituted from the raw argument instead
	// (checked below), so pre-expanding every argument unconditionally
	// here is safe even though some pre-expansions end up unused.
	expanded := make([]TokenArray, len(args))
	for i, a := range args {
		e, err := r.expandTokens(a)
		if err != nil {
			return nil, err
		}
		if len(e) > 0 {
			e[0].LeadingWhitespace = max(e[0].LeadingWhitespace, 1)
		}
		expanded[i] = e
	}

	var result TokenArray
	body := def.Replacement
	i := 0
	for i < len(body) {
		t := body[i]

		if t.Kind == Kind('#') && i+1 < len(body) && body[i+1].Kind == PARAM {
			result = append(result, stringified[body[i+1].Param])
			i += 2
			continue
		}

		if t.Kind == PARAM {
			beforePaste := i > 0 && body[i-1].Kind == TOKEN_PASTE
			afterPaste := i+1 < len(body) && body[i+1].Kind == TOKEN_PASTE
			src := expanded[t.Param]
			if beforePaste || afterPaste {
				src = args[t.Param]
			}
			for _, pt := range src {
				pt.Loc = loc
				result = append(result, pt)
			}
			i++
			continue
		}

		nt := t
		nt.Loc = loc
		result = append(result, nt)
		i++
	}

	pasted, err := pasteReplacementList(result)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: %w", loc.File, loc.Line, err)
	}

	for _, e := range expanded {
		r.pool.Release(e)
	}

	return r.expandTokens(pasted)
}
