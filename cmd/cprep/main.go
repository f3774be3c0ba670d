// Command cprep is a standalone C preprocessor: #include, #define,
// #if/#ifdef conditionals, and macro expansion, with no downstream
// compilation passes attached.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raymyers/cprep/pkg/config"
	"github.com/raymyers/cprep/pkg/ppcore"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	includePaths  []string
	systemPaths   []string
	defineFlags   []string
	undefineFlags []string
	useExternalPP bool
	lineMarkers   bool
	configPath    string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cprep [file]",
		Short: "cprep is a standalone C preprocessor",
		Long: `cprep expands #include, #define, and conditional directives
and writes the resulting translation unit to stdout, the way
"cc -E" does, without any of the compilation passes after it.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doPreprocess(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	rootCmd.Flags().StringArrayVar(&systemPaths, "isystem", nil, "Add directory to system include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().BoolVar(&useExternalPP, "external-cpp", false, "Accepted for cc compatibility; warns and uses the internal preprocessor")
	rootCmd.Flags().BoolVar(&lineMarkers, "line-markers", false, "Emit GNU-style # line markers in -E output")
	rootCmd.Flags().StringVar(&configPath, "config", ".cprep.yaml", "Project config file (include paths, defines) merged with flags")
	// -E is accepted for cc-compatible invocation but preprocessing is
	// the program's only mode, so it has no effect beyond being allowed.
	rootCmd.Flags().BoolP("preprocess", "E", true, "Preprocess only (always on; accepted for cc compatibility)")

	return rootCmd
}

func buildOptions() (*config.Options, error) {
	project, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	flagDefines := make(map[string]string)
	for _, d := range defineFlags {
		if idx := strings.Index(d, "="); idx >= 0 {
			flagDefines[d[:idx]] = d[idx+1:]
		} else {
			flagDefines[d] = ""
		}
	}

	return config.Merge(project, includePaths, systemPaths, flagDefines, undefineFlags, lineMarkers, lineMarkers), nil
}

func doPreprocess(filename string, out, errOut io.Writer) error {
	if useExternalPP {
		fmt.Fprintln(errOut, "cprep: --external-cpp is not implemented by this build; falling back to the internal preprocessor")
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	ctx, err := ppcore.InitPreprocessing(ppcore.Options{
		Filename:           filename,
		UserIncludePaths:   opts.IncludePaths,
		SystemIncludePaths: opts.SystemPaths,
		Defines:            opts.DefinesList(),
		Undefines:          opts.Undefines,
		Diagnostics:        errOut,
		LineMarkers:        opts.LineMarkers,
	})
	if err != nil {
		fmt.Fprintf(errOut, "cprep: %s: %v\n", filename, err)
		return err
	}
	defer ctx.ClearPreprocessing()

	if err := ctx.Preprocess(out); err != nil {
		fmt.Fprintf(errOut, "cprep: %v\n", err)
		return err
	}
	return nil
}
