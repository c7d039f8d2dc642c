// Command cppmacro is a standalone driver for pkg/cpp: it expands C
// preprocessor macros in a source file and writes the result to stdout
// (or a file with -o). It follows the CompCert-style single-dash flag
// compatibility of its parent tool.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gocpp/macroexpand/pkg/cpp"
	"github.com/gocpp/macroexpand/pkg/preproc"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	defineFlags   []string
	undefineFlags []string
	outputPath    string
	useExternal   bool
	dumpMacros    bool
	std89         bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// singleDashFlags lists the long flags that should also accept CompCert-style
// single-dash spelling (e.g. -external instead of --external).
var singleDashFlags = []string{"external", "dump-macros"}

// normalizeFlags rewrites single-dash long flags to double-dash so pflag
// accepts them.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range singleDashFlags {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cppmacro <file>",
		Short:         "cppmacro expands C preprocessor macros in a source file",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return runExpand(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write expanded output to this file instead of stdout")
	rootCmd.Flags().BoolVar(&useExternal, "external", false, "Use the system preprocessor (cc/gcc/clang -E) instead of the internal engine")
	rootCmd.Flags().BoolVar(&dumpMacros, "dump-macros", false, "Print the macro table to stderr after expansion instead of writing output")
	rootCmd.Flags().BoolVar(&std89, "std89", false, "Bootstrap __STDC_VERSION__/__STRICT_ANSI__ as C89 instead of C99")

	return rootCmd
}

func buildOptions() *preproc.Options {
	opts := &preproc.Options{
		Defines:     make(map[string]string),
		Undefines:   undefineFlags,
		UseExternal: useExternal,
		Standard:    cpp.StdC99,
	}
	if std89 {
		opts.Standard = cpp.StdC89
	}
	for _, d := range defineFlags {
		if idx := strings.IndexByte(d, '='); idx >= 0 {
			opts.Defines[d[:idx]] = d[idx+1:]
		} else {
			opts.Defines[d] = ""
		}
	}
	return opts
}

func runExpand(filename string, out, errOut io.Writer) error {
	if dumpMacros {
		return doDumpMacros(filename, errOut)
	}

	opts := buildOptions()
	content, err := preproc.Preprocess(filename, opts)
	if err != nil {
		fmt.Fprintf(errOut, "cppmacro: %v\n", err)
		return err
	}

	if outputPath == "" {
		fmt.Fprint(out, content)
		return nil
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		fmt.Fprintf(errOut, "cppmacro: writing %s: %v\n", outputPath, err)
		return err
	}
	return nil
}

// doDumpMacros expands filename (to pick up every #define it contains)
// then prints the final macro table instead of the expanded source.
func doDumpMacros(filename string, errOut io.Writer) error {
	opts := buildOptions()
	if opts.UseExternal {
		return fmt.Errorf("--dump-macros requires the internal engine, not --external")
	}

	engine := cpp.NewEngineWithStandard(opts.Standard)
	var defines []string
	for name, value := range opts.Defines {
		if value == "" {
			defines = append(defines, name)
		} else {
			defines = append(defines, name+"="+value)
		}
	}
	if err := engine.Macros().ApplyCmdlineDefines(defines, opts.Undefines); err != nil {
		return err
	}

	if _, err := preproc.PreprocessWithEngine(engine, filename, &preproc.Options{Standard: opts.Standard}); err != nil {
		// Parse errors here still surface; defines already applied above
		// are from the command line, so a broken file doesn't hide them.
		fmt.Fprintf(errOut, "cppmacro: warning: %v\n", err)
	}

	names := engine.Macros().Names()
	sort.Strings(names)
	for _, name := range names {
		if m := engine.Definition(name, cpp.SourceLoc{}); m != nil {
			fmt.Fprintln(errOut, m.String())
		}
	}
	return nil
}
