package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/fleet-ops-api/internal/app"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Create expiry notifications for certificates due in the next 30 days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(func(c *app.Container) error {
				result, err := c.Services.Notifications.Sweep(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "examined %d, created %d, skipped %d, failed %d\n",
					result.Examined, result.Created, result.Skipped, result.Failed)
				return nil
			})
		},
	}
}
