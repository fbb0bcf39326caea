package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage devices in the tailnet",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			devices, err := client.Devices(cmd.Context())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(devices))
			for id := range devices {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tHOSTNAME\tUSER\tOS\tAUTHORIZED\tLAST SEEN")
			for _, id := range ids {
				device := devices[id]
				lastSeen := ""
				if !device.LastSeen.IsZero() {
					lastSeen = device.LastSeen.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
					device.ID, device.Hostname, device.User, device.OS,
					device.Authorized, lastSeen)
			}
			return w.Flush()
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <device-id>",
		Short: "Show one device as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			device, err := client.Device(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, device)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <device-id>",
		Short: "Remove a device from the tailnet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DeleteDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device %s deleted\n", args[0])
			return nil
		},
	}

	authorizeCmd := &cobra.Command{
		Use:   "authorize <device-id>",
		Short: "Authorize a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.AuthorizeDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device %s authorized\n", args[0])
			return nil
		},
	}

	var tags []string
	tagsCmd := &cobra.Command{
		Use:   "tags <device-id>",
		Short: "Replace the tags of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.SetDeviceTags(cmd.Context(), args[0], tags)
		},
	}
	tagsCmd.Flags().StringSliceVar(&tags, "tag", nil, `tag to apply (repeatable, e.g. "tag:server")`)

	devicesCmd.AddCommand(listCmd, getCmd, deleteCmd, authorizeCmd, tagsCmd)
	return devicesCmd
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
