package cli

import (
	"github.com/spf13/cobra"

	"staticcms/app/internal/codec"
)

func newFmtCommand(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Re-encode a document in canonical form",
		Long:  "fmt prints the canonical encoding of FILE, or rewrites FILE in place with --write.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.readDocument(args[0])
			if err != nil {
				return err
			}

			if write {
				if err := writeDocument(args[0], doc); err != nil {
					return err
				}
				a.logger.WithField("file", args[0]).Info("document formatted")
				return nil
			}

			_, err = cmd.OutOrStdout().Write(codec.Encode(doc))
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to FILE")
	return cmd
}
