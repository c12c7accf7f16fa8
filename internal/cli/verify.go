package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/chain"
)

// VerifyEntry is the verification outcome of one model.
type VerifyEntry struct {
	Model     string `json:"model"`
	Valid     bool   `json:"valid"`
	Code      string `json:"code,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Ordinal   *int   `json:"ordinal,omitempty"` // set for invalid models; 0 is the genesis entry
	Message   string `json:"message,omitempty"`
}

// VerifyResult holds the outcome for every checked model.
type VerifyResult struct {
	Models  []VerifyEntry `json:"models"`
	Valid   int           `json:"valid"`
	Invalid int           `json:"invalid"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [model...]",
		Short: "Check stored history for tampering",
		Long: `Recompute every digest and link of the named models, or of every
stored model when none are named.

Exit codes:
  0 - All histories verified
  1 - One or more histories were tampered with
  2 - Command error (unknown model, unreadable database, etc.)

Examples:
  eidetic verify
  eidetic verify user-1 user-2 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, names []string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if len(names) == 0 {
		infos, err := st.List(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list models", err)
		}
		for _, info := range infos {
			names = append(names, info.Name)
		}
	}

	result := VerifyResult{Models: make([]VerifyEntry, 0, len(names))}
	for _, name := range names {
		entry := VerifyEntry{Model: name, Valid: true}

		if err := st.Verify(ctx, name); err != nil {
			var ie *chain.IntegrityError
			if !errors.As(err, &ie) {
				return classifyError(fmt.Sprintf("failed to verify %s", name), err)
			}
			entry = VerifyEntry{
				Model:     name,
				Code:      string(ie.Code),
				Attribute: ie.Attribute,
				Ordinal:   &ie.Ordinal,
				Message:   ie.Message,
			}
			result.Invalid++
		} else {
			result.Valid++
		}
		result.Models = append(result.Models, entry)
	}

	var failure *ExitError
	if result.Invalid > 0 {
		failure = &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("%d model(s) failed verification", result.Invalid),
			ErrCode: ErrCodeIntegrity,
		}
	}

	if opts.Format == "json" {
		if failure != nil {
			return outputJSONError(cmd, failure, result)
		}
		return outputJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	for _, e := range result.Models {
		if e.Valid {
			fmt.Fprintf(w, "✓ %s\n", e.Model)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %s at %s ordinal %d: %s\n", e.Model, e.Code, e.Attribute, *e.Ordinal, e.Message)
	}
	if failure != nil {
		return failure
	}
	return nil
}
