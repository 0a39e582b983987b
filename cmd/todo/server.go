package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"crudkit/pkg/config"
	"crudkit/pkg/db"
	"crudkit/pkg/server"
	"crudkit/pkg/server/middleware"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the todo API server",
	Long: `Run the todo API server.

Requires the DATABASE_URL environment variable. By default, database
migrations are run on startup; use --no-migrate to skip.

Set CRUDKIT_GUARD_SECRET (or guard_secret in the config file) to require
bearer tokens on the API; without a secret all routes are open.`,
	Run: func(cmd *cobra.Command, args []string) {
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		gormDB, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		host, _ := cmd.Flags().GetString("bind-address")
		if host == "" {
			host = cfg.BindAddress
		}
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = strconv.Itoa(cfg.Port)
		}

		s := server.NewServer(gormDB, host, port)

		resource := newTodoResource(gormDB)
		resource.MaxLimit = cfg.ListLimitMax
		resource.UseHTTPS = cfg.UseHTTPS
		if cfg.GuardSecret != "" {
			guard := middleware.NewGuard([]byte(cfg.GuardSecret), cfg.TokenTTLDuration())
			resource.Guard = guard.Middleware
		}
		resource.Register(s.Router)

		watchConfig, _ := cmd.Flags().GetBool("watch-config")
		if watchConfig {
			stop, err := config.Watch(nil)
			if err != nil {
				log.Printf("config watch unavailable: %v", err)
			} else {
				defer stop()
			}
		}

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("bind-address", "", "address to bind to (overrides config)")
	serverCmd.Flags().String("port", "", "port to listen on (overrides config)")
	serverCmd.Flags().Bool("no-migrate", false, "skip database migrations on startup")
	serverCmd.Flags().Bool("watch-config", false, "reload configuration when the config file changes")
}
