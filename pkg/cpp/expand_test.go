package cpp

import (
	"strings"
	"testing"
)

func expandString(mt *MacroTable, input string) (string, error) {
	tokens := Tokenize(input, "test")
	r := NewRewriter(mt, mt.pool)
	result, err := r.Expand(tokens)
	if err != nil {
		return "", err
	}
	return TokensToString(result), nil
}

type macroSpec struct {
	name   string
	params []string
	body   string
}

func defineAll(t *testing.T, mt *MacroTable, specs []macroSpec) {
	t.Helper()
	loc := SourceLoc{File: "test", Line: 1}
	for _, m := range specs {
		body := Tokenize(m.body, "test")
		if m.params == nil {
			if err := mt.DefineObject(m.name, body, loc); err != nil {
				t.Fatalf("DefineObject(%s) error: %v", m.name, err)
			}
			continue
		}
		body = withParams(body, m.params)
		if err := mt.DefineFunction(m.name, m.params, body, loc); err != nil {
			t.Fatalf("DefineFunction(%s) error: %v", m.name, err)
		}
	}
}

// withParams rewrites IDENTIFIER tokens matching a parameter name into
// PARAM tokens, since Tokenize alone has no notion of macro parameters.
func withParams(body TokenArray, params []string) TokenArray {
	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p] = i
	}
	out := make(TokenArray, len(body))
	for i, tok := range body {
		if tok.Kind == IDENTIFIER {
			if p, ok := index[tok.Text]; ok {
				tok.Kind = PARAM
				tok.Param = p
			}
		}
		out[i] = tok
	}
	return out
}

// stripWhitespace removes all whitespace before comparing expansion
// output. The expander forces a separator space ahead of each
// substituted argument so tokens cannot glue together at splice seams
// (SQ(3) renders as "(( 3)*( 3))"); spacing is therefore not part of
// what these tests assert. TestArgumentSeamSpacing pins the exact
// rendering.
func stripWhitespace(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func TestExpandObjectMacro(t *testing.T) {
	tests := []struct {
		name     string
		defines  map[string]string
		input    string
		expected string
	}{
		{
			name:     "simple replacement",
			defines:  map[string]string{"X": "42"},
			input:    "int a = X;",
			expected: "int a = 42;",
		},
		{
			name:     "multiple replacements",
			defines:  map[string]string{"X": "1", "Y": "2"},
			input:    "int a = X + Y;",
			expected: "int a = 1 + 2;",
		},
		{
			name:     "no replacement if not defined",
			defines:  map[string]string{"X": "42"},
			input:    "int a = Y;",
			expected: "int a = Y;",
		},
		{
			name:     "chained macro expansion",
			defines:  map[string]string{"X": "Y", "Y": "42"},
			input:    "int a = X;",
			expected: "int a = 42;",
		},
		{
			name:     "empty replacement",
			defines:  map[string]string{"EMPTY": ""},
			input:    "a EMPTY b",
			expected: "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			for name, value := range tt.defines {
				if err := mt.DefineSimple(name, value, SourceLoc{File: "test", Line: 1}); err != nil {
					t.Fatalf("DefineSimple(%s, %s) error: %v", name, value, err)
				}
			}

			result, err := expandString(mt, tt.input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}

			result = stripWhitespace(result)
			expected := stripWhitespace(tt.expected)
			if result != expected {
				t.Errorf("got %q, want %q", result, expected)
			}
		})
	}
}

func TestExpandFunctionMacro(t *testing.T) {
	tests := []struct {
		name     string
		macros   []macroSpec
		input    string
		expected string
	}{
		{
			name: "simple function macro",
			macros: []macroSpec{
				{name: "ADD", params: []string{"a", "b"}, body: "((a)+(b))"},
			},
			input:    "int x = ADD(1, 2);",
			expected: "int x = ((1)+(2));",
		},
		{
			name: "nested parentheses in argument",
			macros: []macroSpec{
				{name: "F", params: []string{"x"}, body: "x"},
			},
			input:    "F((1+2))",
			expected: "(1+2)",
		},
		{
			name: "commas in nested parens",
			macros: []macroSpec{
				{name: "F", params: []string{"x"}, body: "x"},
			},
			input:    "F((a,b))",
			expected: "(a,b)",
		},
		{
			name: "macro not invoked without parens",
			macros: []macroSpec{
				{name: "F", params: []string{"x"}, body: "x"},
			},
			input:    "F",
			expected: "F",
		},
		{
			name: "whitespace between name and parens",
			macros: []macroSpec{
				{name: "F", params: []string{"x"}, body: "x"},
			},
			input:    "F (42)",
			expected: "42",
		},
		{
			name: "nested macro calls",
			macros: []macroSpec{
				{name: "ADD", params: []string{"a", "b"}, body: "((a)+(b))"},
				{name: "MUL", params: []string{"a", "b"}, body: "((a)*(b))"},
			},
			input:    "ADD(MUL(1,2), 3)",
			expected: "((((1)*(2)))+(3))",
		},
		{
			name: "zero-arity invocation",
			macros: []macroSpec{
				{name: "NOW", params: []string{}, body: "1970"},
			},
			input:    "NOW()",
			expected: "1970",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			defineAll(t, mt, tt.macros)

			result, err := expandString(mt, tt.input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}

			result = stripWhitespace(result)
			expected := stripWhitespace(tt.expected)
			if result != expected {
				t.Errorf("got %q, want %q", result, expected)
			}
		})
	}
}

func TestStringification(t *testing.T) {
	tests := []struct {
		name     string
		macros   []macroSpec
		input    string
		expected string
	}{
		{
			name: "simple stringification",
			macros: []macroSpec{
				{name: "STR", params: []string{"x"}, body: "#x"},
			},
			input:    `STR(hello)`,
			expected: `"hello"`,
		},
		{
			name: "stringification with multiple tokens",
			macros: []macroSpec{
				{name: "STR", params: []string{"x"}, body: "#x"},
			},
			input:    `STR(a + b)`,
			expected: `"a + b"`,
		},
		{
			name: "stringification escapes quotes",
			macros: []macroSpec{
				{name: "STR", params: []string{"x"}, body: "#x"},
			},
			input:    `STR("hello")`,
			expected: `"\"hello\""`,
		},
		{
			name: "stringification sees the raw, unexpanded argument",
			macros: []macroSpec{
				{name: "A", params: nil, body: "1"},
				{name: "STR", params: []string{"x"}, body: "#x"},
			},
			input:    `STR(A)`,
			expected: `"A"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			defineAll(t, mt, tt.macros)

			result, err := expandString(mt, tt.input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}

			result = stripWhitespace(result)
			expected := stripWhitespace(tt.expected)
			if result != expected {
				t.Errorf("got %q, want %q", result, expected)
			}
		})
	}
}

func TestTokenPasting(t *testing.T) {
	tests := []struct {
		name     string
		macros   []macroSpec
		input    string
		expected string
	}{
		{
			name: "simple pasting",
			macros: []macroSpec{
				{name: "PASTE", params: []string{"a", "b"}, body: "a##b"},
			},
			input:    "PASTE(foo, bar)",
			expected: "foobar",
		},
		{
			name: "pasting numbers",
			macros: []macroSpec{
				{name: "CONCAT", params: []string{"a", "b"}, body: "a##b"},
			},
			input:    "CONCAT(x, 123)",
			expected: "x123",
		},
		{
			name: "object-like macro with paste",
			macros: []macroSpec{
				{name: "V", params: nil, body: "1"},
				{name: "MAKE", params: []string{"x"}, body: "v##x"},
			},
			input:    "MAKE(V)",
			expected: "vV",
		},
		{
			name: "empty paste vanishes",
			macros: []macroSpec{
				{name: "J", params: []string{"a", "b"}, body: "a##b"},
			},
			input:    "J(,)",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			defineAll(t, mt, tt.macros)

			result, err := expandString(mt, tt.input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}

			result = stripWhitespace(result)
			expected := stripWhitespace(tt.expected)
			if result != expected {
				t.Errorf("got %q, want %q", result, expected)
			}
		})
	}
}

func TestRecursiveExpansionPrevention(t *testing.T) {
	tests := []struct {
		name     string
		defines  map[string]string
		input    string
		expected string
	}{
		{
			name:     "direct self-reference",
			defines:  map[string]string{"X": "X + 1"},
			input:    "X",
			expected: "X+1",
		},
		{
			name:     "indirect self-reference",
			defines:  map[string]string{"A": "B", "B": "A"},
			input:    "A",
			expected: "A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			for name, value := range tt.defines {
				if err := mt.DefineSimple(name, value, SourceLoc{File: "test", Line: 1}); err != nil {
					t.Fatalf("DefineSimple error: %v", err)
				}
			}

			result, err := expandString(mt, tt.input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}

			result = stripWhitespace(result)
			expected := stripWhitespace(tt.expected)
			if result != expected {
				t.Errorf("got %q, want %q", result, expected)
			}
		})
	}
}

func TestBuiltinMacros(t *testing.T) {
	mt := NewMacroTable()
	r := NewRewriter(mt, mt.pool)
	loc := SourceLoc{File: "test.c", Line: 42, Column: 1}

	tests := []struct {
		input    string
		contains string
	}{
		{"__FILE__", `"test.c"`},
		{"__LINE__", "42"},
		{"__STDC__", "1"},
		{"__STDC_VERSION__", "199901L"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := Tokenize(tt.input, "test.c")
			for i := range tokens {
				tokens[i].Loc = loc
			}
			result, err := r.Expand(tokens)
			if err != nil {
				t.Fatalf("Expand error: %v", err)
			}
			got := TokensToString(result)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("%s expansion %q does not contain %q", tt.input, got, tt.contains)
			}
		})
	}
}

func TestExpanderErrors(t *testing.T) {
	tests := []struct {
		name   string
		macros []macroSpec
		input  string
		errMsg string
	}{
		{
			name: "wrong number of arguments",
			macros: []macroSpec{
				{name: "F", params: []string{"a", "b"}, body: "a+b"},
			},
			input:  "F(1)",
			errMsg: "argument",
		},
		{
			name: "unterminated argument list",
			macros: []macroSpec{
				{name: "F", params: []string{"x"}, body: "x"},
			},
			input:  "F(1",
			errMsg: "unterminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := NewMacroTable()
			defineAll(t, mt, tt.macros)

			_, err := expandString(mt, tt.input)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestArgumentSeamSpacing(t *testing.T) {
	mt := NewMacroTable()
	defineAll(t, mt, []macroSpec{
		{name: "SQ", params: []string{"x"}, body: "((x)*(x))"},
		{name: "N", params: nil, body: "3"},
	})

	// Each substituted argument carries a forced separator space so it
	// cannot glue to the token before it at the splice seam.
	result, err := expandString(mt, "SQ(N)")
	if err != nil {
		t.Fatalf("expandString error: %v", err)
	}
	if result != "(( 3)*( 3))" {
		t.Errorf("got %q, want %q", result, "(( 3)*( 3))")
	}
}

func TestExpandFixedPoint(t *testing.T) {
	mt := NewMacroTable()
	if err := mt.DefineSimple("X", "42", SourceLoc{File: "test", Line: 1}); err != nil {
		t.Fatalf("DefineSimple error: %v", err)
	}
	r := NewRewriter(mt, mt.pool)

	once, err := r.Expand(Tokenize("int a = X;", "test"))
	if err != nil {
		t.Fatalf("first Expand error: %v", err)
	}
	twice, err := r.Expand(once)
	if err != nil {
		t.Fatalf("second Expand error: %v", err)
	}
	if !tokensEqual(once, twice) {
		t.Errorf("re-expanding an already-expanded stream changed it:\n once: %q\ntwice: %q",
			TokensToString(once), TokensToString(twice))
	}
}

func TestExpansionLeavesNoParamOrPaste(t *testing.T) {
	mt := NewMacroTable()
	defineAll(t, mt, []macroSpec{
		{name: "CAT", params: []string{"a", "b"}, body: "a##b"},
		{name: "STRX", params: []string{"x"}, body: "#x"},
	})
	r := NewRewriter(mt, mt.pool)

	result, err := r.Expand(Tokenize("CAT(x,1) STRX(y)", "test"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	for i, tok := range result {
		if tok.Kind == PARAM || tok.Kind == TOKEN_PASTE {
			t.Errorf("token %d: %v survived expansion in %q", i, tok.Kind, TokensToString(result))
		}
	}
}
