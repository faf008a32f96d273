package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "safenest",
	Short: "Agape Safety Nest intake and admin API",
	Long: `safenest serves the public onboarding and contact forms and the
admin API used to review requests, manage residents and edit site settings.

Configuration is read from the environment (and an optional .env file).`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, hashPasswordCmd, addAccountCmd, seedCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
