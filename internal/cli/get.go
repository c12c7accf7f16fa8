package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/payload"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Version int // ordinal to read; -1 for the current value
}

// GetResult holds a read value.
type GetResult struct {
	Model     string          `json:"model"`
	Attribute string          `json:"attribute"`
	Ordinal   int             `json:"ordinal"`
	Value     json.RawMessage `json:"value"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <model> <attribute>",
		Short: "Read an attribute's current or historical value",
		Long: `Print an attribute's value as canonical JSON.

Ordinal 0 is the genesis entry; the first written value is ordinal 1.

Examples:
  eidetic get user-1 name
  eidetic get user-1 name --version 1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Version, "version", -1, "ordinal to read (default: current value)")

	return cmd
}

func runGet(opts *GetOptions, name, attribute string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(opts.RootOptions)
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

	ordinal := c.Latest().Ordinal()
	if opts.Version >= 0 {
		ordinal = opts.Version
	}
	v, ok := m.GetAt(attribute, ordinal)
	if !ok {
		return &ExitError{
			Code:    ExitCommandError,
			Message: fmt.Sprintf("%s.%s has no ordinal %d (latest is %d)", name, attribute, ordinal, c.Latest().Ordinal()),
			ErrCode: ErrCodeNotFound,
		}
	}

	if opts.Format == "json" {
		return outputJSON(cmd, GetResult{
			Model:     name,
			Attribute: attribute,
			Ordinal:   ordinal,
			Value:     payload.MustMarshalCanonical(v),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), canonical(v))
	return nil
}
