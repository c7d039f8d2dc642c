package cpp

import (
	"fmt"
	"strconv"
	"strings"
)

// MacroKind distinguishes object-like, function-like, and built-in macros.
type MacroKind int

const (
	MacroObject MacroKind = iota
	MacroFunction
	MacroBuiltin
)

func (k MacroKind) String() string {
	switch k {
	case MacroObject:
		return "object-like"
	case MacroFunction:
		return "function-like"
	case MacroBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Macro is one definition stored in a MacroTable. Replacement is immutable
// once inserted, except for slot 0 of the __FILE__/__LINE__ builtins,
// which MacroTable.Lookup rewrites on every lookup.
type Macro struct {
	Name        string
	Kind        MacroKind
	Params      []string // parameter names; arity is len(Params)
	Replacement TokenArray
	Stringify   bool // cached: replacement contains '#' PARAM
	IsFile      bool // __FILE__: Lookup rewrites Replacement[0] to a STRING
	IsLine      bool // __LINE__: Lookup rewrites Replacement[0] to a PREP_NUMBER

	// BuiltinFunc, when set, computes this builtin's replacement fresh on
	// every lookup (e.g. __DATE__, __TIME__) instead of using Replacement.
	BuiltinFunc func(loc SourceLoc) TokenArray
}

// String renders the macro as a #define line, for diagnostics and the
// -dump-macros CLI flag.
func (m *Macro) String() string {
	var sb strings.Builder
	if m.Kind == MacroBuiltin {
		fmt.Fprintf(&sb, "#define %s /* builtin */", m.Name)
		return sb.String()
	}
	fmt.Fprintf(&sb, "#define %s", m.Name)
	if m.Kind == MacroFunction {
		sb.WriteByte('(')
		sb.WriteString(strings.Join(m.Params, ", "))
		sb.WriteByte(')')
	}
	sb.WriteByte(' ')
	sb.WriteString(TokensToString(m.Replacement))
	return sb.String()
}

// Arity is the number of parameters of a function-like macro (0 for
// object-like and builtin macros).
func (m *Macro) Arity() int { return len(m.Params) }

// MacrosEqual is the macro-equality relation used to permit identical
// redefinition: same kind, arity, name, replacement length, and every
// replacement token pairwise equal under TokCmp.
func MacrosEqual(a, b *Macro) bool {
	if a.Kind != b.Kind || a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}
	return tokensEqual(a.Replacement, b.Replacement)
}

// MacroTable maps macro names to their definitions.
type MacroTable struct {
	defs map[string]*Macro
	pool *TokenArrayPool
}

// Standard selects which predefined version macros a fresh MacroTable
// bootstraps.
type Standard int

const (
	StdC99 Standard = iota
	StdC89
)

// NewMacroTable constructs an empty-but-for-builtins table (C99 builtins).
// There is no package-level global table: a fresh Engine gets a fresh one
// and nothing survives across Engine instances.
func NewMacroTable() *MacroTable {
	return NewMacroTableWithStandard(StdC99)
}

// NewMacroTableWithStandard is NewMacroTable with an explicit C standard.
func NewMacroTableWithStandard(std Standard) *MacroTable {
	mt := &MacroTable{defs: make(map[string]*Macro, 1024), pool: NewTokenArrayPool()}
	registerBuiltins(mt, std)
	return mt
}

// Lookup returns the macro bound to name, or nil. loc supplies the
// current expansion location used to refresh __FILE__/__LINE__'s
// Replacement[0] before returning, a read-through hook on lookup rather
// than a per-expansion rewrite scattered through the Rewriter.
func (mt *MacroTable) Lookup(name string, loc SourceLoc) *Macro {
	m, ok := mt.defs[name]
	if !ok {
		return nil
	}
	if m.IsFile {
		m.Replacement[0] = Token{Kind: STRING, Text: quoteFile(loc.File), Loc: loc}
	} else if m.IsLine {
		m.Replacement[0] = Token{Kind: PREP_NUMBER, Text: strconv.Itoa(loc.Line), Loc: loc}
	}
	return m
}

// IsDefined reports whether name is currently bound, without triggering
// the __FILE__/__LINE__ refresh (no location is available to refresh with).
func (mt *MacroTable) IsDefined(name string) bool {
	_, ok := mt.defs[name]
	return ok
}

// IsObjectMacro reports whether name is bound to an object-like macro.
func (mt *MacroTable) IsObjectMacro(name string) bool {
	m, ok := mt.defs[name]
	return ok && m.Kind == MacroObject
}

// IsFunctionMacro reports whether name is bound to a function-like macro.
func (mt *MacroTable) IsFunctionMacro(name string) bool {
	m, ok := mt.defs[name]
	return ok && m.Kind == MacroFunction
}

// Names returns every currently-bound macro name, in unspecified order.
func (mt *MacroTable) Names() []string {
	names := make([]string, 0, len(mt.defs))
	for n := range mt.defs {
		names = append(names, n)
	}
	return names
}

// DefineObject defines (or identically redefines) an object-like macro.
func (mt *MacroTable) DefineObject(name string, replacement TokenArray, loc SourceLoc) error {
	return mt.define(&Macro{Name: name, Kind: MacroObject, Replacement: replacement})
}

// DefineFunction defines (or identically redefines) a function-like
// macro. Only fixed-arity macros are supported; there is no variadic
// (... / __VA_ARGS__) form.
func (mt *MacroTable) DefineFunction(name string, params []string, replacement TokenArray, loc SourceLoc) error {
	return mt.define(&Macro{Name: name, Kind: MacroFunction, Params: params, Replacement: replacement})
}

// DefineSimple defines an object-like macro from a command-line-style
// value string (as produced by -D name=value), tokenizing value with the
// standard lexer. An empty value defines an empty replacement list.
func (mt *MacroTable) DefineSimple(name, value string, loc SourceLoc) error {
	var body TokenArray
	if value != "" {
		body = Tokenize(value, loc.File)
		for i := range body {
			body[i].Loc = loc
		}
	}
	return mt.DefineObject(name, body, loc)
}

// ApplyCmdlineDefines applies a batch of -D/-U style definitions: each
// define is "NAME" (value defaults to "1") or "NAME=VALUE"; each undefine
// is a bare name.
func (mt *MacroTable) ApplyCmdlineDefines(defines, undefines []string) error {
	loc := SourceLoc{File: "<command-line>", Line: 1}
	for _, d := range defines {
		name, value := d, "1"
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			name, value = d[:idx], d[idx+1:]
		}
		if err := mt.DefineSimple(name, value, loc); err != nil {
			return err
		}
	}
	for _, u := range undefines {
		mt.Undefine(u)
	}
	return nil
}

// Undefine removes name's binding, releasing its replacement back to the
// pool. __FILE__ and __LINE__ cannot be undefined; the two dynamically-
// refreshed builtins are permanently present. Undefining an unbound name
// is a silent no-op.
func (mt *MacroTable) Undefine(name string) {
	m, ok := mt.defs[name]
	if !ok {
		return
	}
	if m.IsFile || m.IsLine {
		return
	}
	delete(mt.defs, name)
	mt.pool.Release(m.Replacement)
}

// Clone deep-copies the table (including builtin flags) so a caller can
// snapshot macro state before a speculative expansion and discard the
// copy afterward without disturbing the original.
func (mt *MacroTable) Clone() *MacroTable {
	out := &MacroTable{defs: make(map[string]*Macro, len(mt.defs)), pool: NewTokenArrayPool()}
	for name, m := range mt.defs {
		clone := *m
		clone.Replacement = append(TokenArray{}, m.Replacement...)
		clone.Params = append([]string{}, m.Params...)
		out.defs[name] = &clone
	}
	return out
}

// Destroy pools every stored replacement and discards the table. Called
// at Engine teardown.
func (mt *MacroTable) Destroy() {
	for _, m := range mt.defs {
		mt.pool.Release(m.Replacement)
	}
	mt.defs = nil
	mt.pool.Destroy()
}

// define validates m, then inserts it or, if a macro of the same name
// already exists, either discards m (identical redefinition) or reports
// a conflict.
func (mt *MacroTable) define(m *Macro) error {
	if err := validateMacro(m); err != nil {
		return err
	}
	if existing, ok := mt.defs[m.Name]; ok {
		if MacrosEqual(existing, m) {
			mt.pool.Release(m.Replacement)
			return nil
		}
		return fmt.Errorf("redefinition of macro %q with a different replacement list (was %s, now %s)",
			m.Name, existing.String(), m.String())
	}
	mt.defs[m.Name] = m
	return nil
}

// validateMacro checks a not-yet-inserted macro: every PARAM index must
// be in range, object-like bodies carry no PARAM tokens, and '##' cannot
// open or close a replacement list.
func validateMacro(m *Macro) error {
	arity := len(m.Params)
	if m.Kind == MacroObject && arity != 0 {
		return fmt.Errorf("macro %q: object-like macro must have zero parameters", m.Name)
	}
	for i, t := range m.Replacement {
		if t.Kind == PARAM {
			if m.Kind == MacroObject {
				return fmt.Errorf("macro %q: object-like macro body cannot reference a parameter", m.Name)
			}
			if t.Param < 0 || t.Param >= arity {
				return fmt.Errorf("macro %q: parameter index %d out of range for arity %d", m.Name, t.Param, arity)
			}
		}
		if t.Kind == TOKEN_PASTE && (i == 0 || i == len(m.Replacement)-1) {
			return fmt.Errorf("macro %q: '##' cannot appear at the start or end of a replacement list", m.Name)
		}
	}
	m.Stringify = hasStringifyParam(m.Replacement)
	return nil
}

// hasStringifyParam reports whether body contains a '#' token immediately
// followed by a PARAM token.
func hasStringifyParam(body TokenArray) bool {
	for i := 0; i+1 < len(body); i++ {
		if body[i].Kind == Kind('#') && body[i+1].Kind == PARAM {
			return true
		}
	}
	return false
}

func quoteFile(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + replacer.Replace(path) + `"`
}
