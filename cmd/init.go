package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/backdrop/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize backdrop configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure backdrop for your page and writes a .backdrop.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
