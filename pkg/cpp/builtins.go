// builtins.go registers the predefined macros and supplies the
// GetFileToken/GetLineToken helpers for collaborators that need the
// __FILE__/__LINE__ replacement for a location without a table lookup.
package cpp

import (
	"strconv"
	"time"
)

// RegisterBuiltinDefinitions seeds (or re-seeds) mt with the standard
// predefined macros for std. NewMacroTable calls this during
// construction; it is exported for drivers that undefine predefined
// macros and later want the stock set back.
func (mt *MacroTable) RegisterBuiltinDefinitions(std Standard) {
	registerBuiltins(mt, std)
}

// registerBuiltins seeds mt with the standard predefined macros. None of
// them takes parameters, so every registered body is a literal token list
// (empty for __inline and __STRICT_ANSI__) or a BuiltinFunc closure.
func registerBuiltins(mt *MacroTable, std Standard) {
	def := func(name string, body TokenArray) {
		mt.defs[name] = &Macro{Name: name, Kind: MacroBuiltin, Replacement: body}
	}
	defFunc := func(name string, fn func(loc SourceLoc) TokenArray) {
		mt.defs[name] = &Macro{Name: name, Kind: MacroBuiltin, BuiltinFunc: fn}
	}
	number := func(text string) TokenArray { return TokenArray{{Kind: PREP_NUMBER, Text: text}} }

	def("__STDC__", number("1"))
	def("__STDC_HOSTED__", number("1"))
	def("__x86_64__", number("1"))
	def("__inline", nil)

	switch std {
	case StdC89:
		def("__STDC_VERSION__", number("199409L"))
		def("__STRICT_ANSI__", nil)
	default:
		def("__STDC_VERSION__", number("199901L"))
	}

	defFunc("__DATE__", func(loc SourceLoc) TokenArray {
		return TokenArray{{Kind: STRING, Text: `"` + time.Now().Format("Jan 02 2006") + `"`, Loc: loc}}
	})
	defFunc("__TIME__", func(loc SourceLoc) TokenArray {
		return TokenArray{{Kind: STRING, Text: `"` + time.Now().Format("15:04:05") + `"`, Loc: loc}}
	})

	// __FILE__/__LINE__ start at a placeholder; MacroTable.Lookup rewrites
	// Replacement[0] on every lookup using the caller's current location.
	mt.defs["__FILE__"] = &Macro{Name: "__FILE__", Kind: MacroBuiltin, IsFile: true,
		Replacement: TokenArray{{Kind: STRING, Text: `""`}}}
	mt.defs["__LINE__"] = &Macro{Name: "__LINE__", Kind: MacroBuiltin, IsLine: true,
		Replacement: TokenArray{{Kind: PREP_NUMBER, Text: "0"}}}
}

// GetFileToken returns the single-token replacement __FILE__ would have
// at loc, without requiring a table lookup.
func (mt *MacroTable) GetFileToken(loc SourceLoc) TokenArray {
	return TokenArray{{Kind: STRING, Text: quoteFile(loc.File), Loc: loc}}
}

// GetLineToken returns the single-token replacement __LINE__ would have
// at loc, without requiring a table lookup.
func (mt *MacroTable) GetLineToken(loc SourceLoc) TokenArray {
	return TokenArray{{Kind: PREP_NUMBER, Text: strconv.Itoa(loc.Line), Loc: loc}}
}
