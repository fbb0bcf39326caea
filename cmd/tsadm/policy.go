package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailnetops/tailscale-go/pkg/tailscale"
)

func newPolicyCmd() *cobra.Command {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage the tailnet policy file",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the policy file as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			policy, err := client.Policy(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, policy)
		},
	}

	var policyFile string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the policy file",
		Long:  `Replace the policy file with the JSON document read from --file ("-" for stdin).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPolicyInput(cmd, policyFile)
			if err != nil {
				return err
			}

			var policy tailscale.Policy
			if err := json.Unmarshal(data, &policy); err != nil {
				return fmt.Errorf("failed to parse policy document: %w", err)
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			updated, err := client.SetPolicy(cmd.Context(), &policy)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		},
	}
	setCmd.Flags().StringVar(&policyFile, "file", "", `policy document to upload ("-" for stdin)`)
	setCmd.MarkFlagRequired("file")

	policyCmd.AddCommand(getCmd, setCmd)
	return policyCmd
}

func readPolicyInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
