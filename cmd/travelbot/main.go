package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "travelbot",
	Short: "Conversational travel assistant",
	Long: `travelbot answers questions about flights from a bundled dataset and
about visa and refund rules from a policy document, from the terminal or
through a small web chat.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
}

func loadEnv() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()
}
