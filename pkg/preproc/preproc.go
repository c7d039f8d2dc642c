// Package preproc is the minimal directive driver sitting in front of the
// pkg/cpp macro-expansion engine: it walks a source file line by line,
// handles #define/#undef, and hands every other line's tokens to the
// engine for expansion. Conditional compilation (#if/#ifdef/#endif) and
// #include resolution are out of scope for the engine this package
// drives (see pkg/cpp's non-goals); any other directive line is passed
// through verbatim, unevaluated. A fallback to the system preprocessor
// (cc/gcc/clang -E) is kept for callers that need the full standard.
package preproc

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gocpp/macroexpand/pkg/cpp"
)

// Options configures the preprocessing step.
type Options struct {
	IncludePaths []string          // -I directories; only honored by the external preprocessor
	SystemPaths  []string          // -isystem directories; only honored by the external preprocessor
	Defines      map[string]string // -D macros (name -> value, empty string for simple define)
	Undefines    []string          // -U macros
	UseExternal  bool              // force use of the external preprocessor
	Standard     cpp.Standard
}

// Preprocess runs the preprocessor on filename and returns the
// preprocessed source. By default it uses the internal engine; set
// UseExternal to shell out to the system preprocessor instead.
func Preprocess(filename string, opts *Options) (string, error) {
	if opts != nil && opts.UseExternal {
		return preprocessExternal(filename, opts)
	}
	out, _, err := preprocessInternal(filename, opts, nil)
	return out, err
}

// PreprocessWithEngine is Preprocess, but drives (and leaves populated)
// a caller-supplied Engine instead of a throwaway internal one, so the
// caller can inspect the final macro table after processing, e.g. a
// -dump-macros flag that wants every #define the file itself contains,
// not just the ones supplied on the command line. The engine is used as
// given: opts' Defines, Undefines and Standard are not applied to it, and
// UseExternal is ignored.
func PreprocessWithEngine(engine *cpp.Engine, filename string, opts *Options) (string, error) {
	out, _, err := preprocessInternal(filename, opts, engine)
	return out, err
}

// preprocessInternal drives pkg/cpp's Engine over filename one line at a
// time. If engine is nil, a fresh one is constructed from opts; otherwise
// the caller's engine is used (and mutated) directly.
func preprocessInternal(filename string, opts *Options, engine *cpp.Engine) (string, *cpp.Engine, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	if opts != nil && (len(opts.IncludePaths) > 0 || len(opts.SystemPaths) > 0) {
		fmt.Fprintf(os.Stderr, "%s: warning: -I/-isystem have no effect on the internal preprocessor (no include resolution); use --external\n", filename)
	}

	if engine == nil {
		std := cpp.StdC99
		if opts != nil {
			std = opts.Standard
		}
		engine = cpp.NewEngineWithStandard(std)
		if opts != nil {
			var defines []string
			for name, value := range opts.Defines {
				if value == "" {
					defines = append(defines, name)
				} else {
					defines = append(defines, name+"="+value)
				}
			}
			if err := engine.Macros().ApplyCmdlineDefines(defines, opts.Undefines); err != nil {
				return "", nil, err
			}
		}
	}

	var out strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		rewritten, err := processLine(engine, filename, lineNo, line)
		if err != nil {
			return "", nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		out.WriteString(rewritten)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return out.String(), engine, nil
}

// processLine handles one logical source line: a #define/#undef
// directive updates the engine's macro table and produces no output; any
// other directive line is passed through verbatim; anything else is
// tokenized and run through the engine's expansion.
func processLine(engine *cpp.Engine, filename string, lineNo int, line string) (string, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		directive := strings.TrimSpace(trimmed[1:])
		switch {
		case strings.HasPrefix(directive, "define"):
			return "", handleDefine(engine, filename, lineNo, strings.TrimSpace(directive[len("define"):]))
		case strings.HasPrefix(directive, "undef"):
			name := strings.TrimSpace(directive[len("undef"):])
			engine.Undef(name)
			return "", nil
		default:
			// #if/#include/#error/... are this driver's non-goals; keep
			// the line untouched for a downstream tool to handle.
			return line, nil
		}
	}

	loc := cpp.SourceLoc{File: filename, Line: lineNo}
	tokens := cpp.Tokenize(line, filename)
	for i := range tokens {
		tokens[i].Loc = loc
	}
	expanded, err := engine.ExpandTokens(tokens)
	if err != nil {
		return "", err
	}
	out := cpp.TokensToString(expanded)
	engine.ReleaseTokenArray(expanded)
	return out, nil
}

// handleDefine parses "NAME body", "NAME(p1,p2) body", or a bare "NAME"
// and registers the corresponding macro.
func handleDefine(engine *cpp.Engine, filename string, lineNo int, rest string) error {
	loc := cpp.SourceLoc{File: filename, Line: lineNo}
	tokens := cpp.Tokenize(rest, filename)
	if len(tokens) == 0 {
		return fmt.Errorf("#define with no name")
	}
	if tokens[0].Kind != cpp.IDENTIFIER {
		return fmt.Errorf("#define name must be an identifier")
	}
	name := tokens[0].Text

	if len(tokens) > 1 && tokens[1].Kind == cpp.Kind('(') && tokens[1].LeadingWhitespace == 0 {
		var params []string
		i := 2
		for i < len(tokens) && tokens[i].Kind != cpp.Kind(')') {
			if tokens[i].Kind == cpp.IDENTIFIER {
				params = append(params, tokens[i].Text)
			}
			i++
		}
		if i >= len(tokens) {
			return fmt.Errorf("unterminated parameter list in #define %s", name)
		}
		i++ // past ')'
		body := paramize(append(cpp.TokenArray{}, tokens[i:]...), params)
		return engine.DefineFunction(name, params, body, loc)
	}

	body := append(cpp.TokenArray{}, tokens[1:]...)
	return engine.Define(name, body, loc)
}

// paramize rewrites IDENTIFIER tokens matching a parameter name into
// PARAM tokens.
func paramize(body cpp.TokenArray, params []string) cpp.TokenArray {
	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p] = i
	}
	for i, tok := range body {
		if tok.Kind == cpp.IDENTIFIER {
			if p, ok := index[tok.Text]; ok {
				body[i].Kind = cpp.PARAM
				body[i].Param = p
			}
		}
	}
	return body
}

// preprocessExternal uses the system C preprocessor (cc -E).
func preprocessExternal(filename string, opts *Options) (string, error) {
	args := []string{"-E"}

	if opts != nil {
		for _, path := range opts.IncludePaths {
			args = append(args, "-I"+path)
		}
		for _, path := range opts.SystemPaths {
			args = append(args, "-isystem", path)
		}
		for name, value := range opts.Defines {
			if value == "" {
				args = append(args, "-D"+name)
			} else {
				args = append(args, "-D"+name+"="+value)
			}
		}
		for _, name := range opts.Undefines {
			args = append(args, "-U"+name)
		}
	}

	args = append(args, filename)

	cppCmd := findPreprocessor()
	if cppCmd == "" {
		return "", fmt.Errorf("no C preprocessor found (tried: cc, gcc, clang)")
	}

	cmd := exec.Command(cppCmd, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = filepath.Dir(filename)

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("preprocessing failed: %v\n%s", err, stderr.String())
	}

	return stdout.String(), nil
}

// PreprocessString preprocesses C source code provided as a string by
// writing it to a temporary file, preprocessing it, then cleaning up.
func PreprocessString(source, filename string, opts *Options) (string, error) {
	tmpDir := os.TempDir()
	baseName := filepath.Base(filename)
	if baseName == "" {
		baseName = "source.c"
	}
	tmpFile := filepath.Join(tmpDir, "cppmacro-"+baseName)

	if err := os.WriteFile(tmpFile, []byte(source), 0644); err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile)

	return Preprocess(tmpFile, opts)
}

// NeedsPreprocessing returns true if the file might need preprocessing.
// Files ending in .i or .p are considered already preprocessed.
func NeedsPreprocessing(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext != ".i" && ext != ".p"
}

// findPreprocessor searches for a C preprocessor on the system.
func findPreprocessor() string {
	candidates := []string{"cc", "gcc", "clang"}
	for _, cmd := range candidates {
		if path, err := exec.LookPath(cmd); err == nil {
			return path
		}
	}
	return ""
}
