package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macrolens/macrolens/internal/config"
	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/frontend"
	"github.com/macrolens/macrolens/internal/mir"
	"github.com/macrolens/macrolens/internal/session"
	"github.com/macrolens/macrolens/internal/treedoc"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	Convert bool
	Disable []string
	Output  string
}

// EmitResult is the JSON payload for a successful emit.
type EmitResult struct {
	File   string `json:"file"`
	Nodes  int    `json:"nodes"`
	Module string `json:"module"`
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit <source-file>",
		Short: "Translate one source file and print its module",
		Long: `Translate a single translation unit and print the module in the
stable textual form.

C sources (.c) go through the built-in parser with macro expansion
recorded in place; tree documents (.cue) are loaded directly. With
--convert, recognized kernel idioms are rewritten into their dedicated
operations before printing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Convert, "convert", false, "rewrite recognized idioms into dedicated operations")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "pattern rules to disable")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runEmit(opts *EmitOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return outputEmitError(formatter, ErrCodeBadInput, fmt.Sprintf("loading config: %v", err))
	}

	sessOpts := sessionOptions(opts.Convert, cfg, opts.Disable)
	sess := session.New(sessOpts...)

	formatter.VerboseLog("Parsing %s", path)
	tu, err := loadUnit(cmd.Context(), path, sess, cfg, opts.Verbose)
	if err != nil {
		return outputEmitError(formatter, ErrCodeParseFailed, err.Error())
	}

	mod := sess.Run(tu)
	text, err := sess.EmitText(mod)
	if err != nil {
		return outputEmitError(formatter, ErrCodeGeneric, fmt.Sprintf("emitting module: %v", err))
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(text), 0644); err != nil {
			return outputEmitError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote module to %s", opts.Output)
	}

	result := &EmitResult{File: path, Nodes: countNodes(mod), Module: text}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if opts.Output == "" {
		fmt.Fprint(formatter.Writer, text)
	}
	return nil
}

// sessionOptions builds session options from flags and config.
func sessionOptions(convert bool, cfg config.Config, disable []string) []session.Option {
	var sessOpts []session.Option
	if convert {
		sessOpts = append(sessOpts, session.WithConvert())
	}
	disabled := append(append([]string{}, cfg.Rules.Disabled...), disable...)
	if len(disabled) > 0 {
		sessOpts = append(sessOpts, session.WithDisabledRules(disabled...))
	}
	return sessOpts
}

// loadUnit routes a source path to the matching front end.
func loadUnit(ctx context.Context, path string, sess *session.Session, cfg config.Config, verbose bool) (*cst.TranslationUnit, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return parseC(ctx, path, sess, cfg, verbose)
	case ".cue":
		return treedoc.LoadFile(path, sess.Lits(), sess.Sentinels())
	default:
		return nil, fmt.Errorf("unsupported source file %s: want .c, .h, or .cue", path)
	}
}

func parseC(ctx context.Context, path string, sess *session.Session, cfg config.Config, verbose bool) (*cst.TranslationUnit, error) {
	catalog := frontend.NewCatalog(cfg.Safety.Macros)
	var parserOpts []frontend.Option
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		defer logger.Sync()
		parserOpts = append(parserOpts, frontend.WithLogger(logger))
	}
	p := frontend.NewParser(sess.Lits(), sess.Sentinels(), catalog, parserOpts...)
	defer p.Close()
	return p.ParseFile(ctx, path)
}

// countNodes walks the module and counts every node.
func countNodes(mod *mir.Node) int {
	n := 0
	mir.Walk(mod, func(*mir.Node) bool {
		n++
		return true
	})
	return n
}

func outputEmitError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
