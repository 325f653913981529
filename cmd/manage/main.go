package main

import (
	"fmt"
	"os"

	"github.com/benvon/hotsauce-api/cmd/manage/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "hotsauce-manage",
		Short: "Operations tool for the Hot Sauce API",
		Long:  "CLI tool for schema migrations, session secrets and provider key inspection",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewKeygenCmd())
	rootCmd.AddCommand(commands.NewJWKSCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
