package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "Example todo service built on the CRUD toolkit",
	Long: `An example todo service demonstrating the CRUD toolkit.

The service exposes a paginated CRUD API for todo items at /todos,
backed by PostgreSQL. It exists to show how an application wires a
model, a schema, and a component together.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
