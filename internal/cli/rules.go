package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrolens/macrolens/internal/rewrite"
)

// RulesResult is the JSON payload for the rules command.
type RulesResult struct {
	Rules []string `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the pattern library rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			names := rewrite.RuleNames()
			if formatter.Format == "json" {
				return formatter.Success(&RulesResult{Rules: names})
			}
			for _, name := range names {
				fmt.Fprintln(formatter.Writer, name)
			}
			return nil
		},
	}
}
