package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yungbote/knowledge-backend/internal/app"
)

var purgeOwnerCmd = &cobra.Command{
	Use:   "purge-owner --owner <uuid>",
	Short: "Delete every asset owned by a user",
	Long: `Purge-owner lists all assets of the owner and deletes each one through the
deletion pipeline. Without --yes it asks for confirmation first.`,
	Args: cobra.NoArgs,
	RunE: runPurgeOwner,
}

var (
	purgeOwner string
	purgeYes   bool
)

func init() {
	purgeOwnerCmd.Flags().StringVar(&purgeOwner, "owner", "", "Owner user id (required)")
	purgeOwnerCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip the confirmation prompt")
	_ = purgeOwnerCmd.MarkFlagRequired("owner")
}

func runPurgeOwner(cmd *cobra.Command, args []string) error {
	ownerID, err := parseUUID("owner", purgeOwner)
	if err != nil {
		return err
	}
	if !purgeYes {
		color.Yellow("This deletes ALL assets of owner %s.", ownerID)
		fmt.Fprint(cmd.OutOrStdout(), "Type the owner id to continue: ")
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(line) != ownerID.String() {
			color.Yellow("Aborted.")
			return nil
		}
	}

	return withCore(func(ctx context.Context, a *app.App) error {
		res, err := a.Services.AssetDeleter.DeleteAllAssetsForOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("list assets: %w", err)
		}
		printSummary(cmd.OutOrStdout(), res.Deleted, res.Failed, res.FailedFileNames)
		exitCode = exitCodeFor(res.Status)
		return nil
	})
}
