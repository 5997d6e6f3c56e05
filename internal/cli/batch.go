package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/macrolens/macrolens/internal/config"
	"github.com/macrolens/macrolens/internal/frontend"
	"github.com/macrolens/macrolens/internal/session"
	"github.com/macrolens/macrolens/internal/store"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Convert bool
	Disable []string
	DBPath  string
}

// BatchSummary is the JSON payload for a finished batch run.
type BatchSummary struct {
	RunID  string `json:"run_id"`
	Files  int    `json:"files"`
	OK     int    `json:"ok"`
	Failed int    `json:"failed"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <compile_commands.json>",
		Short: "Translate every C file of a compilation database",
		Long: `Translate every C translation unit listed in a compilation database
and record per-file outcomes in a result store.

Each unit is processed by an independent session; a failing unit is
recorded and does not stop the run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Convert, "convert", false, "rewrite recognized idioms into dedicated operations")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "pattern rules to disable")
	cmd.Flags().StringVar(&opts.DBPath, "db", "macrolens.db", "result store path")

	return cmd
}

func runBatch(opts *BatchOptions, compileDB string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logger := zap.NewNop()
	if opts.Verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return outputBatchError(formatter, ErrCodeGeneric, fmt.Sprintf("creating logger: %v", err))
		}
	}
	defer logger.Sync()

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return outputBatchError(formatter, ErrCodeBadInput, fmt.Sprintf("loading config: %v", err))
	}

	commands, err := frontend.LoadCompileCommands(compileDB)
	if err != nil {
		return outputBatchError(formatter, ErrCodeNotFound, fmt.Sprintf("loading compilation database: %v", err))
	}
	if len(commands) == 0 {
		return outputBatchError(formatter, ErrCodeBadInput, fmt.Sprintf("no C sources in %s", compileDB))
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return outputBatchError(formatter, ErrCodeStoreFailed, fmt.Sprintf("opening result store: %v", err))
	}
	defer st.Close()

	run, err := st.CreateRun(compileDB, opts.Convert)
	if err != nil {
		return outputBatchError(formatter, ErrCodeStoreFailed, err.Error())
	}
	logger.Info("batch run started",
		zap.String("run_id", run.ID),
		zap.String("compile_db", compileDB),
		zap.Int("files", len(commands)),
		zap.Bool("convert", opts.Convert))

	summary := &BatchSummary{RunID: run.ID, Files: len(commands)}
	for _, cc := range commands {
		path := cc.SourcePath()
		result := processBatchFile(cmd, opts, cfg, run.ID, path, logger)
		if result.Status == store.StatusOK {
			summary.OK++
		} else {
			summary.Failed++
		}
		if err := st.InsertResult(result); err != nil {
			return outputBatchError(formatter, ErrCodeStoreFailed, err.Error())
		}
	}

	if err := st.FinishRun(run.ID); err != nil {
		return outputBatchError(formatter, ErrCodeStoreFailed, err.Error())
	}
	logger.Info("batch run finished",
		zap.String("run_id", run.ID),
		zap.Int("ok", summary.OK),
		zap.Int("failed", summary.Failed))

	if err := outputBatchSummary(formatter, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) failed", summary.Failed, summary.Files))
	}
	return nil
}

// processBatchFile translates one unit in its own session. Failures
// become error results, never run aborts.
func processBatchFile(cmd *cobra.Command, opts *BatchOptions, cfg config.Config, runID, path string, logger *zap.Logger) *store.Result {
	result := &store.Result{RunID: runID, File: path}

	sess := session.New(sessionOptions(opts.Convert, cfg, opts.Disable)...)
	tu, err := parseC(cmd.Context(), path, sess, cfg, false)
	if err != nil {
		logger.Warn("parse failed", zap.String("file", path), zap.Error(err))
		result.Status = store.StatusError
		result.Error = err.Error()
		return result
	}

	mod := sess.Run(tu)
	text, err := sess.EmitText(mod)
	if err != nil {
		logger.Warn("emit failed", zap.String("file", path), zap.Error(err))
		result.Status = store.StatusError
		result.Error = err.Error()
		return result
	}

	logger.Debug("file translated", zap.String("file", path), zap.Int("nodes", countNodes(mod)))
	result.Status = store.StatusOK
	result.Module = text
	result.Nodes = int64(countNodes(mod))
	return result
}

func outputBatchSummary(formatter *OutputFormatter, summary *BatchSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	mark := "✓"
	if summary.Failed > 0 {
		mark = "✗"
	}
	fmt.Fprintf(formatter.Writer, "%s Run %s: %d file(s), %d ok, %d failed\n",
		mark, summary.RunID, summary.Files, summary.OK, summary.Failed)
	return nil
}

func outputBatchError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
