package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/correlate/internal/config"
	"github.com/ehdc-llpg/correlate/internal/web"
)

// createServeCmd creates the serve subcommand: the read-only review
// server over completed correlation runs, adapted from cmd/web's
// standalone main into a correlate subcommand.
func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the correlation review API",
		Run: func(cmd *cobra.Command, args []string) {
			host := config.GetEnv("WEB_HOST", "localhost")
			port := config.GetEnvInt("WEB_PORT", 8443)
			dbName := config.GetEnv("DB_NAME", "ehdc_correlate")

			webConfig := &web.Config{
				Server: web.ServerConfig{Port: port, Host: host},
				Database: web.DatabaseConfig{
					URL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
						config.GetEnv("DB_USER", "postgres"),
						config.GetEnv("DB_PASSWORD", "postgres"),
						config.GetEnv("DB_HOST", "localhost"),
						config.GetEnv("DB_PORT", "5432"),
						dbName),
					MaxConnections: config.GetEnvInt("DB_MAX_CONNECTIONS", 10),
				},
				Auth: web.AuthConfig{
					Enabled:    config.GetEnvBool("AUTH_ENABLED", false),
					SessionKey: config.GetEnv("SESSION_KEY", "changeme"),
				},
			}

			server, err := web.NewServer(webConfig)
			if err != nil {
				log.Fatalf("Failed to create server: %v", err)
			}

			fmt.Printf("Starting correlation review server on http://%s:%d\n", host, port)
			if err := server.Start(); err != nil {
				log.Fatalf("Server failed to start: %v", err)
			}
		},
	}
}
