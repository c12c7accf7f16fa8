package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/loader"
)

// NewHydrateCommand creates the hydrate command.
func NewHydrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hydrate <model> <file>",
		Short: "Set attributes from a JSON, YAML or CUE file",
		Long: `Append one version per top-level key of the file, in file order.

Supported formats: .json, .yaml, .yml and .cue. CUE files must
evaluate to concrete values.

Examples:
  eidetic hydrate user-1 profile.yaml
  eidetic hydrate user-1 profile.cue`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHydrate(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runHydrate(opts *RootOptions, name, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	obj, err := loader.LoadFile(path)
	if err != nil {
		return classifyError("failed to load attributes", err)
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	m, err := loadModel(ctx, st, name, true)
	if err != nil {
		return err
	}
	m.Hydrate(obj)

	saved, err := saveModel(ctx, st, name, m)
	if err != nil {
		return err
	}
	return outputImport(opts, cmd, name, obj.Len(), saved)
}
