package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eidetic/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored models",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	infos, err := st.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list models", err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No models found.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tATTRIBUTES\tVERSIONS\tCREATED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
			info.Name, info.Attributes, info.Versions,
			time.Unix(info.CreatedAt, 0).UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <digest>",
		Short: "Find the versions carrying a digest",
		Long: `Look up which model, attribute and ordinal a digest belongs to.

Every genesis entry shares one digest, so it matches every attribute.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runFind(opts *RootOptions, digest string, cmd *cobra.Command) error {
	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore(st)

	locations, err := st.FindDigest(cmd.Context(), digest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to search digests", err)
	}

	if opts.Format == "json" {
		return outputJSON(cmd, locations)
	}
	return printLocations(cmd, digest, locations)
}

func printLocations(cmd *cobra.Command, digest string, locations []store.Location) error {
	w := cmd.OutOrStdout()
	if len(locations) == 0 {
		fmt.Fprintf(w, "No versions found for digest: %s\n", digest)
		return nil
	}
	for _, loc := range locations {
		fmt.Fprintf(w, "%s.%s @%d\n", loc.Model, loc.Attribute, loc.Ordinal)
	}
	return nil
}
