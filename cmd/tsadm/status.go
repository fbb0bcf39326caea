package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailnetops/tailscale-go/pkg/tailscale"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the tailnet",
		Long: `Fetch devices, auth keys, and the policy file concurrently and print a
one-screen summary. With OAuth credentials the three requests share a single
token exchange.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			var (
				devices map[string]tailscale.Device
				keys    []string
				policy  *tailscale.Policy
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				devices, err = client.Devices(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				keys, err = client.Keys(ctx)
				return err
			})
			g.Go(func() error {
				var err error
				policy, err = client.Policy(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			authorized := 0
			for _, device := range devices {
				if device.Authorized {
					authorized++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "devices:    %d (%d authorized)\n", len(devices), authorized)
			fmt.Fprintf(out, "auth keys:  %d\n", len(keys))
			fmt.Fprintf(out, "acl rules:  %d\n", len(policy.ACLs))
			fmt.Fprintf(out, "acl groups: %d\n", len(policy.Groups))
			return nil
		},
	}
}
