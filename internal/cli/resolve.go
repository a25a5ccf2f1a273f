package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"staticcms/app/internal/resolver"
)

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve FILE PATH",
		Short: "Show which entry a request path renders",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(args[0])
			if err != nil {
				return err
			}

			entry, err := resolver.Resolve(doc, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", entry.Template, entry.Slug, entry.Title)
			return nil
		},
	}
}
