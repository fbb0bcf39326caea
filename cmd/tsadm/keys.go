package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailnetops/tailscale-go/pkg/tailscale"
)

func newKeysCmd() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage auth keys in the tailnet",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List auth key IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <key-id>",
		Short: "Show one auth key as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			key, err := client.Key(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, key)
		},
	}

	var (
		reusable      bool
		ephemeral     bool
		preauthorized bool
		tags          []string
		description   string
		expirySeconds int64
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new auth key",
		Long: `Create a new auth key. The secret key material is printed once and
cannot be retrieved again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			key, err := client.CreateAuthKey(cmd.Context(), tailscale.CreateKeyRequest{
				Capabilities: tailscale.KeyCapabilities{
					Devices: tailscale.KeyDeviceCapabilities{
						Create: tailscale.KeyCreateCapabilities{
							Reusable:      reusable,
							Ephemeral:     ephemeral,
							Preauthorized: preauthorized,
							Tags:          tags,
						},
					},
				},
				ExpirySeconds: expirySeconds,
				Description:   description,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, key)
		},
	}
	createCmd.Flags().BoolVar(&reusable, "reusable", false, "the key can register more than one device")
	createCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "devices registered with the key are removed when they go offline")
	createCmd.Flags().BoolVar(&preauthorized, "preauthorized", false, "devices registered with the key skip manual authorization")
	createCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag applied to registered devices (repeatable)")
	createCmd.Flags().StringVar(&description, "description", "", "human-readable key description")
	createCmd.Flags().Int64Var(&expirySeconds, "expiry-seconds", 0, "key lifetime in seconds (0 uses the server default)")

	deleteCmd := &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Revoke an auth key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DeleteKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key %s deleted\n", args[0])
			return nil
		},
	}

	keysCmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd)
	return keysCmd
}
