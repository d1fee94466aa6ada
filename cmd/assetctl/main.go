package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yungbote/knowledge-backend/internal/app"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitPartial = 2
)

var rootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Operator tooling for knowledge asset deletion",
	Long: `assetctl runs the same deletion pipeline the HTTP API uses, directly against
the configured stores. Configuration is read from the environment and CONFIG_FILE.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCode is set by subcommands that finish with partial or failed deletions.
var exitCode = exitOK

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(purgeOwnerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(exitFailed)
	}
	os.Exit(exitCode)
}

// withCore builds the non-HTTP app, hands it to fn and tears it down afterwards.
func withCore(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewCore(ctx)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}
