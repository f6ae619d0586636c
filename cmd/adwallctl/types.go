package main

import "github.com/spf13/cobra"

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "查看启用的广告类型",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		types, err := c.ListAdTypes(ctx)
		if err != nil {
			return err
		}
		return printOut(cmd.OutOrStdout(), types)
	},
}
