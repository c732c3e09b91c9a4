package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/storyloom/internal/app"
)

func BadgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Badge catalog and awards",
	}

	cmd.AddCommand(badgesSeedCmd())
	cmd.AddCommand(badgesEvaluateCmd())
	return cmd
}

func badgesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default badges that do not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				created, err := a.BadgeService.InitializeDefaultBadges()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d badges created\n", created)

				badges, err := a.BadgeService.All()
				if err != nil {
					return err
				}
				for _, b := range badges {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", b.Icon, b.Name, b.Requirement)
				}
				return nil
			})
		},
	}
}

func badgesEvaluateCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Award any badges a user has earned",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.ByUsername(username)
				if err != nil {
					return fmt.Errorf("failed to find user %q: %w", username, err)
				}

				awarded, err := a.BadgeService.Evaluate(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				if len(awarded) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "no new badges for %s\n", user.Username)
					return nil
				}
				for _, b := range awarded {
					fmt.Fprintf(cmd.OutOrStdout(), "awarded %s %s to %s\n", b.Icon, b.Name, user.Username)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "username to evaluate")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
