// golden_test.go drives end-to-end expansion scenarios from a YAML
// fixture file (testdata/scenarios.yaml).
package cpp

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

type scenarioSpec struct {
	Name    string   `yaml:"name"`
	Defines []string `yaml:"defines"`
	Input   string   `yaml:"input"`
	Expect  string   `yaml:"expect"`
}

type scenarioFile struct {
	Scenarios []scenarioSpec `yaml:"scenarios"`
}

// parseDefineLine parses a "#define" body (everything after the name
// "#define " would normally come) of the form "NAME value..." or
// "NAME(p1,p2) body...", the minimal subset this fixture format needs.
func parseDefineLine(t *testing.T, mt *MacroTable, line string) {
	t.Helper()
	loc := SourceLoc{File: "golden", Line: 1}
	tokens := Tokenize(line, "golden")
	if len(tokens) == 0 || tokens[0].Kind != IDENTIFIER {
		t.Fatalf("malformed define line %q", line)
	}
	name := tokens[0].Text

	if len(tokens) > 1 && tokens[1].Kind == Kind('(') && tokens[1].LeadingWhitespace == 0 {
		var params []string
		i := 2
		for i < len(tokens) && tokens[i].Kind != Kind(')') {
			if tokens[i].Kind == IDENTIFIER {
				params = append(params, tokens[i].Text)
			}
			i++
		}
		i++ // past ')'
		body := withParams(append(TokenArray{}, tokens[i:]...), params)
		if err := mt.DefineFunction(name, params, body, loc); err != nil {
			t.Fatalf("DefineFunction(%s) error: %v", name, err)
		}
		return
	}

	body := append(TokenArray{}, tokens[1:]...)
	if err := mt.DefineObject(name, body, loc); err != nil {
		t.Fatalf("DefineObject(%s) error: %v", name, err)
	}
}

func TestGoldenScenarios(t *testing.T) {
	data, err := os.ReadFile("../../testdata/scenarios.yaml")
	if err != nil {
		t.Fatalf("reading testdata/scenarios.yaml: %v", err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("parsing testdata/scenarios.yaml: %v", err)
	}
	if len(file.Scenarios) == 0 {
		t.Fatal("no scenarios loaded")
	}

	for _, sc := range file.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			mt := NewMacroTable()
			for _, d := range sc.Defines {
				parseDefineLine(t, mt, d)
			}
			got, err := expandString(mt, sc.Input)
			if err != nil {
				t.Fatalf("expandString error: %v", err)
			}
			got = stripWhitespace(got)
			want := stripWhitespace(sc.Expect)
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestGoldenDynamicBuiltins(t *testing.T) {
	mt := NewMacroTable()
	r := NewRewriter(mt, mt.pool)

	stamp := func(line int) TokenArray {
		toks := Tokenize("__FILE__ __LINE__", "main.c")
		for i := range toks {
			toks[i].Loc = SourceLoc{File: "main.c", Line: line}
		}
		return toks
	}

	result, err := r.Expand(stamp(17))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if got := TokensToString(result); got != `"main.c" 17` {
		t.Errorf("line 17: got %q, want \"main.c\" 17", got)
	}

	result, err = r.Expand(stamp(18))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if got := TokensToString(result); got != `"main.c" 18` {
		t.Errorf("line 18: got %q, want \"main.c\" 18", got)
	}
}
