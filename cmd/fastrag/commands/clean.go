package commands

import (
	"fmt"

	"github.com/agrospai/fastrag/internal/app"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the document cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			configPath, _ := cmd.Flags().GetString("config")
			out := cmd.OutOrStdout()

			if !yes {
				ok, err := c.confirm("Delete every cached document, chunk and embedding?")
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			freed, err := c.app.Clean(cmd.Context(), app.CleanOptions{ConfigPath: configPath})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Deleted %s\n", humanize.Bytes(uint64(max(freed, 0))))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().StringP("config", "c", "", "Path to the configuration file (default: discovered from the working directory)")

	return cmd
}
