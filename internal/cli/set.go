package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	String bool // treat the value as plain text
}

// SetResult describes the appended version.
type SetResult struct {
	Model          string          `json:"model"`
	Attribute      string          `json:"attribute"`
	Ordinal        int             `json:"ordinal"`
	Digest         string          `json:"digest"`
	PreviousDigest string          `json:"previous_digest"`
	Value          json.RawMessage `json:"value"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <model> <attribute> <value>",
		Short: "Append a value to an attribute",
		Long: `Append a new version to an attribute of a stored model.

The value is parsed as JSON unless --string is given. Models and
attributes are created on first write.

Examples:
  eidetic set user-1 name '"Ada"'
  eidetic set user-1 name Ada --string
  eidetic set user-1 address '{"city":"London"}'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.String, "string", false, "store the value as plain text")

	return cmd
}

func runSet(opts *SetOptions, name, attribute, arg string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	v, err := parseValue(arg, opts.String)
	if err != nil {
		return err
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m, err := loadModel(ctx, st, name, true)
	if err != nil {
		return err
	}

	version := m.Set(attribute, v)
	if _, err := saveModel(ctx, st, name, m); err != nil {
		return err
	}

	result := SetResult{
		Model:          name,
		Attribute:      attribute,
		Ordinal:        version.Ordinal(),
		Digest:         version.Digest(),
		PreviousDigest: version.PreviousDigest(),
		Value:          json.RawMessage(canonical(version.Value())),
	}
	if opts.Format == "json" {
		return outputJSON(cmd, result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s.%s @%d %s\n", name, attribute, result.Ordinal, result.Digest)
	return nil
}
