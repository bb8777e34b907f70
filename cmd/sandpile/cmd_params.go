package main

import (
	"github.com/spf13/cobra"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the effective parameters",
		Long: `Print the model parameters after the config file, environment and --set
overrides have been applied. With --yaml the whole experiment file is printed
and can be fed back through --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			asYAML, _ := cmd.Flags().GetBool("yaml")
			if asYAML {
				data, err := e.cfg.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return e.cfg.Sandpile.Parameters().Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("yaml", false, "Print the full experiment file as YAML")
	return cmd
}
