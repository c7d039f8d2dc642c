// lifecycle.go bundles the engine's state (MacroTable, TokenArrayPool,
// Rewriter) behind one owning Engine, constructed explicitly rather than
// through init()/finalizer magic.
package cpp

// Engine bundles the macro table, token pool, and rewriter state that
// together make up one preprocessing session. Nothing survives across
// Engine instances; a fresh Engine starts with its own newly built macro
// table (builtins registered) and an empty pool.
type Engine struct {
	macros   *MacroTable
	pool     *TokenArrayPool
	rewriter *Rewriter
}

// NewEngine constructs an Engine with its builtins registered (C99).
func NewEngine() *Engine {
	return NewEngineWithStandard(StdC99)
}

// NewEngineWithStandard is NewEngine with an explicit C standard.
func NewEngineWithStandard(std Standard) *Engine {
	macros := NewMacroTableWithStandard(std)
	pool := macros.pool
	return &Engine{macros: macros, pool: pool, rewriter: NewRewriter(macros, pool)}
}

// Define registers an object-like macro.
func (e *Engine) Define(name string, replacement TokenArray, loc SourceLoc) error {
	return e.macros.DefineObject(name, replacement, loc)
}

// DefineFunction registers a function-like macro.
func (e *Engine) DefineFunction(name string, params []string, replacement TokenArray, loc SourceLoc) error {
	return e.macros.DefineFunction(name, params, replacement, loc)
}

// Undef removes name's binding, if any.
func (e *Engine) Undef(name string) {
	e.macros.Undefine(name)
}

// Definition returns the macro bound to name, or nil, with __FILE__ and
// __LINE__ refreshed against loc.
func (e *Engine) Definition(name string, loc SourceLoc) *Macro {
	return e.macros.Lookup(name, loc)
}

// ExpandTokens rewrites tokens into their fully macro-expanded form.
func (e *Engine) ExpandTokens(tokens TokenArray) (TokenArray, error) {
	return e.rewriter.Expand(tokens)
}

// Stringify exposes the '#' operator for callers like a #error handler
// that need a argument-list-to-string conversion without a full macro
// invocation.
func (e *Engine) Stringify(arg TokenArray) Token {
	return Stringify(arg)
}

// GetTokenArray returns a pooled, logically-empty TokenArray.
func (e *Engine) GetTokenArray() TokenArray {
	return e.pool.Acquire()
}

// ReleaseTokenArray returns a borrowed TokenArray to the pool.
func (e *Engine) ReleaseTokenArray(a TokenArray) {
	e.pool.Release(a)
}

// TokCmp exposes the token-equality relation to callers holding an
// Engine rather than importing the package-level function.
func (e *Engine) TokCmp(a, b Token) int {
	return TokCmp(a, b)
}

// Macros returns the underlying macro table, for callers (e.g. the
// -dump-macros CLI flag) that need direct enumeration.
func (e *Engine) Macros() *MacroTable {
	return e.macros
}

// Destroy tears the engine down, pooling every macro body and discarding
// the pool's cached backing storage.
func (e *Engine) Destroy() {
	e.macros.Destroy()
}

// defaultEngine is the package-level convenience singleton for callers
// that do not need to manage an *Engine themselves. It stays nil until
// the first call to Default.
var defaultEngine *Engine

// Default returns the package-level Engine singleton, constructing it on
// first use.
func Default() *Engine {
	if defaultEngine == nil {
		defaultEngine = NewEngine()
	}
	return defaultEngine
}

// Define defines an object-like macro on the default Engine.
func Define(name string, replacement TokenArray, loc SourceLoc) error {
	return Default().Define(name, replacement, loc)
}

// Undef removes name's binding on the default Engine.
func Undef(name string) {
	Default().Undef(name)
}

// Definition looks up name on the default Engine.
func Definition(name string, loc SourceLoc) *Macro {
	return Default().Definition(name, loc)
}

// ExpandTokens rewrites tokens using the default Engine.
func ExpandTokens(tokens TokenArray) (TokenArray, error) {
	return Default().ExpandTokens(tokens)
}

// GetTokenArray acquires a pooled array from the default Engine.
func GetTokenArray() TokenArray {
	return Default().GetTokenArray()
}

// ReleaseTokenArray releases a pooled array to the default Engine.
func ReleaseTokenArray(a TokenArray) {
	Default().ReleaseTokenArray(a)
}
