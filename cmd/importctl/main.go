// Command importctl inspects the import pipeline from a terminal: it lists
// the importable tables, shows how ambiguous dates resolve, and previews a
// sheet of rows without sending anything downstream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/vetimport/internal/config"
	_ "github.com/JonMunkholm/vetimport/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/vetimport/internal/logging"
)

// cli holds state shared by every subcommand.
type cli struct {
	lookup   config.LookupFunc
	logLevel string
	output   string
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.LookupEnv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(lookup config.LookupFunc) *cobra.Command {
	c := &cli{lookup: lookup}

	root := &cobra.Command{
		Use:           "importctl",
		Short:         "Inspect and dry-run bulk record imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutputFormat(c.output); err != nil {
				return err
			}
			logging.Setup(c.logLevel, "text")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputText, "Output format: text, json, yaml")

	root.AddCommand(
		newTablesCmd(c),
		newResolveDateCmd(c),
		newPreviewCmd(c),
	)

	return root
}

// loadConfig reads configuration the same way the server does.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(c.lookup)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
