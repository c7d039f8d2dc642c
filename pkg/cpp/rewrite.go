// rewrite.go implements the Rewriter: the left-to-right scan that finds
// macro invocations and splices in their expansions, continuing the scan
// from the start of each spliced region so introduced tokens are
// themselves subject to further expansion.
package cpp

import "fmt"

// Rewriter owns the set of macro names currently mid-expansion (the
// disabling set that stops F from re-expanding inside its own
// replacement) and drives both object-like and function-like expansion.
// substitute (substitute.go) is a method on this same type so it can
// recurse back through expandTokens for argument pre-expansion and
// rescanning under the same disabling set.
type Rewriter struct {
	macros  *MacroTable
	pool    *TokenArrayPool
	hideset map[string]bool
}

// NewRewriter returns a Rewriter over macros, using pool for transient
// argument and result arrays.
func NewRewriter(macros *MacroTable, pool *TokenArrayPool) *Rewriter {
	return &Rewriter{macros: macros, pool: pool, hideset: make(map[string]bool)}
}

// Expand rewrites tokens into its fully macro-expanded form.
func (r *Rewriter) Expand(tokens TokenArray) (TokenArray, error) {
	return r.expandTokens(tokens)
}

// expandTokens is the core scan. A macro name is disabled for the
// duration of its own expansion, which is what r.hideset records; since
// it is a single field shared across the whole outer invocation rather
// than a per-call parameter, nested calls automatically see every
// enclosing macro's name without needing to thread a parent set through.
func (r *Rewriter) expandTokens(tokens TokenArray) (TokenArray, error) {
	result := r.pool.Acquire()
	i := 0
	for i < len(tokens) {
		tok := tokens[i]

		if tok.Kind != IDENTIFIER {
			result = append(result, tok)
			i++
			continue
		}

		macro := r.macros.Lookup(tok.Text, tok.Loc)
		if macro == nil || r.hideset[tok.Text] {
			result = append(result, tok)
			i++
			continue
		}

		if macro.Kind == MacroFunction {
			if i+1 >= len(tokens) || tokens[i+1].Kind != Kind('(') {
				// No '(' follows: not an invocation, left unexpanded.
				result = append(result, tok)
				i++
				continue
			}
			args, endIdx, err := ReadArguments(tokens, i+2, macro.Arity())
			if err != nil {
				r.pool.Release(result)
				return nil, err
			}
			expn, err := r.substitute(macro, args, tok.Loc)
			if err != nil {
				r.pool.Release(result)
				return nil, err
			}
			result = append(result, spliceLeadingWhitespace(expn, tok.LeadingWhitespace)...)
			r.pool.Release(expn)
			i = endIdx
			continue
		}

		if macro.Kind == MacroBuiltin {
			expn := r.expandBuiltin(macro, tok.Loc)
			result = append(result, spliceLeadingWhitespace(expn, tok.LeadingWhitespace)...)
			i++
			continue
		}

		// Object-like macro.
		expn, err := r.expandObjectMacro(macro, tok.Loc)
		if err != nil {
			r.pool.Release(result)
			return nil, err
		}
		result = append(result, spliceLeadingWhitespace(expn, tok.LeadingWhitespace)...)
		r.pool.Release(expn)
		i++
	}
	return result, nil
}

// spliceLeadingWhitespace sets expn[0]'s LeadingWhitespace to the
// whitespace that preceded the macro invocation being replaced, so the
// splice seam keeps the spacing the invocation originally had.
func spliceLeadingWhitespace(expn TokenArray, lw int) TokenArray {
	if len(expn) > 0 {
		expn[0].LeadingWhitespace = lw
	}
	return expn
}

// expandBuiltin produces a builtin macro's replacement. BuiltinFunc-backed
// macros (__DATE__, __TIME__) compute fresh every call; __FILE__/__LINE__
// were already refreshed in-place by MacroTable.Lookup; everything else is
// a plain copy stamped with the invocation's location.
func (r *Rewriter) expandBuiltin(macro *Macro, loc SourceLoc) TokenArray {
	if macro.BuiltinFunc != nil {
		return macro.BuiltinFunc(loc)
	}
	out := make(TokenArray, len(macro.Replacement))
	copy(out, macro.Replacement)
	for i := range out {
		out[i].Loc = loc
	}
	return out
}

// expandObjectMacro expands an object-like macro: push the disabling
// entry, paste its replacement (object-like bodies can still use ##),
// and rescan.
func (r *Rewriter) expandObjectMacro(macro *Macro, loc SourceLoc) (TokenArray, error) {
	r.hideset[macro.Name] = true
	defer delete(r.hideset, macro.Name)

	body := make(TokenArray, len(macro.Replacement))
	copy(body, macro.Replacement)
	for i := range body {
		body[i].Loc = loc
	}

	pasted, err := pasteReplacementList(body)
	if err != nil {
		return nil, fmt.Errorf("%s:%d: %w", loc.File, loc.Line, err)
	}
	return r.expandTokens(pasted)
}
