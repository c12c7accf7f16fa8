package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/chain"
)

// HistoryResult lists every version of an attribute.
type HistoryResult struct {
	Model     string         `json:"model"`
	Attribute string         `json:"attribute"`
	Versions  []chain.Record `json:"versions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <model> <attribute>",
		Short: "Show every version of an attribute",
		Long: `List an attribute's versions from genesis to the current value,
with their timestamps and digests.

Examples:
  eidetic history user-1 name
  eidetic history user-1 name --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runHistory(opts *RootOptions, name, attribute string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m, err := loadModel(ctx, st, name, false)
	if err != nil {
		return err
	}

	c, ok := m.Chain(attribute)
	if !ok {
		return &ExitError{
			Code:    ExitCommandError,
			Message: fmt.Sprintf("attribute %q not found in model %q", attribute, name),
			ErrCode: ErrCodeNotFound,
		}
	}

	result := HistoryResult{Model: name, Attribute: attribute, Versions: c.Records()}
	if opts.Format == "json" {
		return outputJSON(cmd, result)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDINAL\tTIMESTAMP\tDIGEST\tVALUE")
	for _, r := range result.Versions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			r.Ordinal,
			time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339),
			r.Digest[:12],
			r.Value,
		)
	}
	return w.Flush()
}
