package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/correlate/internal/config"
	"github.com/ehdc-llpg/correlate/internal/db"
)

var (
	// dbConn is the global database connection, created lazily by
	// subcommands that need one, same as cmd/matcher's package-level
	// dbConn.
	dbConn *db.Connection
)

func requireDB() *db.Connection {
	if dbConn != nil {
		return dbConn
	}
	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return dbConn
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:   "correlate",
		Short: "Generic two-dataset correlation engine",
		Long:  `Correlates values between two labeled datasets by shared exact or fuzzy keys, a domain-agnostic successor to the EHDC address matcher.`,
	}

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createLoadCmd())
	rootCmd.AddCommand(createCorrelateCmd())
	rootCmd.AddCommand(createServeCmd())

	defer func() {
		if dbConn != nil {
			dbConn.Close()
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createPingCmd creates a command to test database connectivity.
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			conn := requireDB()
			fmt.Println("Database connection successful!")

			var count int
			if err := conn.DB.QueryRow("SELECT COUNT(*) FROM correlate_run").Scan(&count); err != nil {
				log.Printf("Error counting correlate_run records: %v", err)
			} else {
				fmt.Printf("Correlation runs recorded: %d\n", count)
			}
		},
	}
}
