package cli

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Pretty  bool
	History bool   // full version history instead of current values
	Output  string // file path; stdout when empty
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <model>",
		Short: "Export a model as JSON",
		Long: `Export a model's current values, dropping nulls and empty
containers. With --history the full version history is exported
instead, in the form accepted by import.

Examples:
  eidetic export user-1 --pretty
  eidetic export user-1 --history -o user-1.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent output")
	cmd.Flags().BoolVar(&opts.History, "history", false, "export full version history")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, name string, cmd *cobra.Command) error {
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

	var data []byte
	if opts.History {
		data, err = m.MarshalJSON()
		if err == nil && opts.Pretty {
			var buf bytes.Buffer
			err = json.Indent(&buf, data, "", "  ")
			data = buf.Bytes()
		}
	} else {
		data, err = m.ToJSON(opts.Pretty)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode model", err)
	}
	data = append(data, '\n')

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output file", err)
	}
	newFormatter(opts.RootOptions, cmd).VerboseLog("wrote %s", opts.Output)
	return nil
}

