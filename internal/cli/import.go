package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/model"
	"github.com/roach88/eidetic/internal/store"
)

// ImportResult describes what an import or hydrate wrote.
type ImportResult struct {
	Model      string `json:"model"`
	Created    bool   `json:"created"`
	Attributes int    `json:"attributes"`
	Versions   int    `json:"versions"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <model> <file>",
		Short: "Import a full version history",
		Long: `Import a model exported with 'export --history'.

Every chain is verified before anything is written. Importing into
an existing model appends versions the archive does not hold yet;
a history that does not extend the stored one is rejected.

Examples:
  eidetic import user-1 user-1.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runImport(opts *RootOptions, name, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input file", err)
	}
	m, err := model.Load(data)
	if err != nil {
		return classifyError("failed to decode history", err)
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	saved, err := saveModel(ctx, st, name, m)
	if err != nil {
		return err
	}
	return outputImport(opts, cmd, name, m.Len(), saved)
}

func outputImport(opts *RootOptions, cmd *cobra.Command, name string, attributes int, saved store.SaveResult) error {
	result := ImportResult{
		Model:      name,
		Created:    saved.Created,
		Attributes: attributes,
		Versions:   saved.Versions,
	}
	if opts.Format == "json" {
		return outputJSON(cmd, result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d version(s) written across %d attribute(s)\n", name, result.Versions, result.Attributes)
	return nil
}
