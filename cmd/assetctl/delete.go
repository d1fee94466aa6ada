package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/knowledge-backend/internal/app"
)

var deleteCmd = &cobra.Command{
	Use:   "delete --owner <uuid> --id <uuid> [--id <uuid>...]",
	Short: "Delete one or more assets owned by a user",
	Long: `Delete removes each asset from the vector index, scrubs chat references to it,
then removes its chunks and metadata row. Exit status is 0 when every asset was
deleted, 2 when some failed and 1 when none could be deleted.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

var (
	deleteOwner string
	deleteIDs   []string
)

func init() {
	deleteCmd.Flags().StringVar(&deleteOwner, "owner", "", "Owner user id (required)")
	deleteCmd.Flags().StringSliceVar(&deleteIDs, "id", nil, "Asset id to delete (repeatable)")
	_ = deleteCmd.MarkFlagRequired("owner")
	_ = deleteCmd.MarkFlagRequired("id")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ownerID, err := parseUUID("owner", deleteOwner)
	if err != nil {
		return err
	}
	assetIDs := make([]uuid.UUID, 0, len(deleteIDs))
	for _, raw := range deleteIDs {
		id, err := parseUUID("id", raw)
		if err != nil {
			return err
		}
		assetIDs = append(assetIDs, id)
	}

	return withCore(func(ctx context.Context, a *app.App) error {
		res := a.Services.AssetDeleter.DeleteAssets(ctx, ownerID, assetIDs)
		out := cmd.OutOrStdout()
		for _, r := range res.Results {
			printResult(out, r)
		}
		printSummary(out, res.DeletedCount, len(res.FailedFileNames), res.FailedFileNames)
		exitCode = exitCodeFor(res.Status)
		return nil
	})
}

func parseUUID(flag, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--%s %q is not a valid id", flag, raw)
	}
	return id, nil
}
