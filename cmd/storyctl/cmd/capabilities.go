package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/templui/storyloom/internal/app"
)

func CapabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show which capabilities are available with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CAPABILITY\tSTATUS\tREASON")
				for _, s := range a.Registry.Statuses() {
					status := "available"
					if !s.Available {
						status = "unavailable"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, status, s.Reason)
				}
				return w.Flush()
			})
		},
	}
}
