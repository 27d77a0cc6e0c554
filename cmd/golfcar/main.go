// Command golfcar runs the golf-car maintenance stock service.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultDBPath = "golfcar.sqlite3"

func main() {
	// A missing .env is fine; the real environment still applies and wins.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "golfcar",
		Short:         "Golf-car maintenance stock service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("db", "d", envOr("GOLFCAR_DB", defaultDBPath), "SQLite database path [GOLFCAR_DB]")
	root.PersistentFlags().StringP("log", "l", os.Getenv("GOLFCAR_LOG"), "log file path, in addition to stdout/stderr [GOLFCAR_LOG]")
	root.PersistentFlags().Bool("debug", false, "log debug messages")

	root.AddCommand(newServeCmd(), newInitCmd(), newMigrateCmd())
	return root
}

// envOr returns the environment variable key, or def when it is unset or empty.
func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loggerFromFlags sets up logging from the persistent flags.
func loggerFromFlags(cmd *cobra.Command) (func(), error) {
	logPath, _ := cmd.Flags().GetString("log")
	debug, _ := cmd.Flags().GetBool("debug")
	return setupLogger(logPath, debug)
}
