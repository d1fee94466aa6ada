package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/data/repos"
	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/observability"
	"github.com/yungbote/knowledge-backend/internal/platform/ctxutil"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

type AssetDeleter interface {
	DeleteAsset(ctx context.Context, ownerID, assetID uuid.UUID) DeleteResult
	DeleteAssets(ctx context.Context, ownerID uuid.UUID, assetIDs []uuid.UUID) BatchDeleteResult
	// DeleteAllAssetsForOwner errors only when the owner's assets cannot be listed.
	DeleteAllAssetsForOwner(ctx context.Context, ownerID uuid.UUID) (OwnerWipeResult, error)
}

type DeleteResult struct {
	AssetID  uuid.UUID
	Kind     types.AssetKind
	FileName string
	Success  bool
	// AlreadyGone is set when the metadata row disappeared before this run removed it.
	AlreadyGone      bool
	VectorsDeleted   int
	ChunksDeleted    int64
	MessagesScrubbed int
	Warnings         []string
	Err              error
}

// Code returns the failure code, or "" for a successful deletion.
func (r DeleteResult) Code() DeletionErrorCode {
	code, _ := DeletionCode(r.Err)
	return code
}

// FailedName is what a batch reports for this asset when it fails.
func (r DeleteResult) FailedName() string {
	if r.FileName != "" {
		return r.FileName
	}
	return r.AssetID.String()
}

type BatchStatus string

const (
	BatchSucceeded BatchStatus = "succeeded"
	BatchPartial   BatchStatus = "partial"
	BatchFailed    BatchStatus = "failed"
)

func batchStatus(deleted, failed int) BatchStatus {
	switch {
	case failed == 0:
		return BatchSucceeded
	case deleted > 0:
		return BatchPartial
	default:
		return BatchFailed
	}
}

type BatchDeleteResult struct {
	DeletedCount    int
	FailedFileNames []string
	Results         []DeleteResult
	Status          BatchStatus
}

type OwnerWipeResult struct {
	Deleted         int
	Failed          int
	FailedFileNames []string
	Status          BatchStatus
}

type AssetDeleterConfig struct {
	// Concurrency above one processes batch members in parallel.
	Concurrency int
}

type assetDeleter struct {
	db          *gorm.DB
	log         *logger.Logger
	assetRepo   repos.AssetRepo
	chunkRepo   repos.ChunkRepo
	vectorIndex VectorIndexClient
	scrubber    ReferenceScrubber
	notifier    AssetNotifier
	metrics     *observability.Metrics
	concurrency int
}

func NewAssetDeleter(
	db *gorm.DB,
	baseLog *logger.Logger,
	assetRepo repos.AssetRepo,
	chunkRepo repos.ChunkRepo,
	vectorIndex VectorIndexClient,
	scrubber ReferenceScrubber,
	notifier AssetNotifier,
	metrics *observability.Metrics,
	cfg AssetDeleterConfig,
) AssetDeleter {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &assetDeleter{
		db:          db,
		log:         baseLog.With("service", "AssetDeleter"),
		assetRepo:   assetRepo,
		chunkRepo:   chunkRepo,
		vectorIndex: vectorIndex,
		scrubber:    scrubber,
		notifier:    notifier,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// deletionRun is the state one asset carries through the pipeline.
type deletionRun struct {
	ownerID uuid.UUID
	asset   *types.Asset
	chunks  []*types.AssetChunk
	result  *DeleteResult
}

type deletionStep struct {
	name string
	run  func(ctx context.Context, r *deletionRun) error
}

// steps runs strictly in this order: vectors before references before metadata.
func (s *assetDeleter) steps() []deletionStep {
	return []deletionStep{
		{name: StepListChunks, run: s.listChunks},
		{name: StepVectorDelete, run: s.deleteVectors},
		{name: StepScrub, run: s.scrubReferences},
		{name: StepMetadataDelete, run: s.deleteMetadata},
	}
}

func (s *assetDeleter) DeleteAsset(ctx context.Context, ownerID, assetID uuid.UUID) DeleteResult {
	ctx = ctxutil.Default(ctx)
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "assets.delete", trace.WithAttributes(
		attribute.String("asset.id", assetID.String()),
	))
	defer span.End()

	res := DeleteResult{AssetID: assetID}
	finish := func() DeleteResult {
		outcome := "deleted"
		if res.AlreadyGone {
			outcome = "already_gone"
		}
		if res.Err != nil {
			outcome = string(res.Code())
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(
			attribute.String("asset.kind", string(res.Kind)),
			attribute.String("asset.outcome", outcome),
			attribute.Int("asset.vectors_deleted", res.VectorsDeleted),
			attribute.Int("asset.messages_scrubbed", res.MessagesScrubbed),
		)
		s.metrics.ObserveAssetDelete(string(res.Kind), outcome, time.Since(start))
		return res
	}

	asset, err := s.resolve(ctx, ownerID, assetID)
	if err != nil {
		res.Err = err
		s.recordStepFailure(ctx, assetID, err)
		return finish()
	}
	res.Kind = asset.Kind
	res.FileName = asset.DisplayName()

	run := &deletionRun{ownerID: ownerID, asset: asset, result: &res}
	for _, step := range s.steps() {
		stepCtx, stepSpan := observability.Tracer().Start(ctx, "assets.delete."+step.name)
		err := step.run(stepCtx, run)
		if err != nil {
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
		}
		stepSpan.End()
		if err != nil {
			res.Err = err
			s.recordStepFailure(ctx, assetID, err)
			return finish()
		}
	}

	res.Success = true
	if !res.AlreadyGone && s.notifier != nil {
		s.notifier.AssetDeleted(ctx, ownerID, asset)
	}
	return finish()
}

func (s *assetDeleter) resolve(ctx context.Context, ownerID, assetID uuid.UUID) (*types.Asset, error) {
	if assetID == uuid.Nil {
		return nil, newDeletionError(DeletionInvalidArgument, assetID, StepResolve, fmt.Errorf("missing asset id"))
	}
	if ownerID == uuid.Nil {
		return nil, newDeletionError(DeletionInvalidArgument, assetID, StepResolve, fmt.Errorf("missing owner id"))
	}
	asset, err := s.assetRepo.GetByID(dbctx.Context{Ctx: ctx}, assetID)
	if err != nil {
		// A failed lookup means nothing has been touched yet; report it like a failed chunk read.
		return nil, newDeletionError(DeletionChunkLookupFailed, assetID, StepResolve, err)
	}
	if asset == nil {
		return nil, newDeletionError(DeletionNotFound, assetID, StepResolve, nil)
	}
	if asset.OwnerID != ownerID {
		return nil, newDeletionError(DeletionForbidden, assetID, StepResolve, nil)
	}
	return asset, nil
}

func (s *assetDeleter) listChunks(ctx context.Context, r *deletionRun) error {
	chunks, err := s.chunkRepo.ListByAssetID(dbctx.Context{Ctx: ctx}, r.asset.ID)
	if err != nil {
		return newDeletionError(DeletionChunkLookupFailed, r.asset.ID, StepListChunks, err)
	}
	r.chunks = chunks
	return nil
}

func (s *assetDeleter) deleteVectors(ctx context.Context, r *deletionRun) error {
	ids := types.AssetChunkVectorIDs(r.chunks)
	if len(ids) == 0 {
		return nil
	}
	if s.vectorIndex == nil {
		return newDeletionError(DeletionIndexDeleteFailed, r.asset.ID, StepVectorDelete,
			&IndexDeleteError{BatchCount: 1, Cause: errVectorStoreUnavailable})
	}
	n, err := s.vectorIndex.DeleteMany(ctx, vectorstore.OwnerNamespace(r.asset.OwnerID), ids)
	r.result.VectorsDeleted = n
	if err != nil {
		return newDeletionError(DeletionIndexDeleteFailed, r.asset.ID, StepVectorDelete, err)
	}
	return nil
}

// scrubReferences fails the asset only when the thread cannot be read; the
// metadata row then stays so a rerun can scrub. Per-message persist errors become warnings.
func (s *assetDeleter) scrubReferences(ctx context.Context, r *deletionRun) error {
	if !r.asset.HasChat() || s.scrubber == nil {
		return nil
	}
	res, err := s.scrubber.Scrub(dbctx.Context{Ctx: ctx}, *r.asset.ChatID, r.asset.Matcher())
	r.result.MessagesScrubbed = res.MessagesModified
	s.metrics.AddScrubbedMessages(res.MessagesModified)
	if errors.Is(err, ErrScrubListFailed) {
		return newDeletionError(DeletionScrubFailed, r.asset.ID, StepScrub, err)
	}
	if err != nil {
		scrubErr := newDeletionError(DeletionScrubFailed, r.asset.ID, StepScrub, err)
		r.result.Warnings = append(r.result.Warnings, scrubErr.Error())
		s.recordStepFailure(ctx, r.asset.ID, scrubErr)
	}
	return nil
}

func (s *assetDeleter) deleteMetadata(ctx context.Context, r *deletionRun) error {
	var chunksDeleted int64
	var rowDeleted bool
	apply := func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := s.chunkRepo.DeleteByAssetID(dbc, r.asset.ID)
		if err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		chunksDeleted = n
		deleted, err := s.assetRepo.DeleteByID(dbc, r.asset.Kind, r.asset.ID)
		if err != nil {
			return fmt.Errorf("delete %s row: %w", r.asset.Kind, err)
		}
		rowDeleted = deleted
		return nil
	}

	var err error
	if s.db == nil {
		err = apply(nil)
	} else {
		err = s.db.WithContext(ctx).Transaction(apply)
	}
	if err != nil {
		return newDeletionError(DeletionMetadataDeleteFailed, r.asset.ID, StepMetadataDelete, err)
	}
	r.result.ChunksDeleted = chunksDeleted
	r.result.AlreadyGone = !rowDeleted
	return nil
}

func (s *assetDeleter) recordStepFailure(ctx context.Context, assetID uuid.UUID, err error) {
	log := s.log
	if kv := ctxutil.TraceFields(ctx); len(kv) > 0 {
		log = log.With(kv...)
	}
	var de *DeletionError
	if !errors.As(err, &de) {
		log.Error("Asset deletion failed", "asset_id", assetID, "error", err)
		return
	}
	s.metrics.IncAssetStepFailure(de.Step, string(de.Code))
	switch de.Code {
	case DeletionNotFound, DeletionForbidden, DeletionInvalidArgument:
		log.Info("Asset deletion rejected", "asset_id", assetID, "code", de.Code)
	case DeletionScrubFailed:
		log.Warn("Asset reference scrub incomplete", "asset_id", assetID, "step", de.Step, "error", de.Cause)
	case DeletionMetadataDeleteFailed:
		log.Error("Asset metadata delete failed; asset remains visible", "asset_id", assetID, "step", de.Step, "error", de.Cause)
	default:
		log.Warn("Asset deletion step failed", "asset_id", assetID, "code", de.Code, "step", de.Step, "error", de.Cause)
	}
}

func (s *assetDeleter) DeleteAssets(ctx context.Context, ownerID uuid.UUID, assetIDs []uuid.UUID) BatchDeleteResult {
	ctx = ctxutil.Default(ctx)
	ids := uniqueIDs(assetIDs)
	results := make([]DeleteResult, len(ids))

	if s.concurrency <= 1 || len(ids) <= 1 {
		for i, id := range ids {
			results[i] = s.DeleteAsset(ctx, ownerID, id)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i, id := range ids {
			g.Go(func() error {
				results[i] = s.DeleteAsset(ctx, ownerID, id)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := foldResults(results)
	s.log.Info("Batch asset deletion finished",
		"owner_id", ownerID,
		"requested", len(ids),
		"deleted", out.DeletedCount,
		"failed", len(out.FailedFileNames),
		"status", out.Status,
	)
	return out
}

// foldResults collects per-asset outcomes in input order.
func foldResults(results []DeleteResult) BatchDeleteResult {
	out := BatchDeleteResult{
		FailedFileNames: []string{},
		Results:         results,
	}
	for _, r := range results {
		if r.Success {
			out.DeletedCount++
			continue
		}
		out.FailedFileNames = append(out.FailedFileNames, r.FailedName())
	}
	out.Status = batchStatus(out.DeletedCount, len(out.FailedFileNames))
	return out
}

func (s *assetDeleter) DeleteAllAssetsForOwner(ctx context.Context, ownerID uuid.UUID) (OwnerWipeResult, error) {
	ctx = ctxutil.Default(ctx)
	if ownerID == uuid.Nil {
		return OwnerWipeResult{}, newDeletionError(DeletionInvalidArgument, uuid.Nil, StepResolve, fmt.Errorf("missing owner id"))
	}
	owned, err := s.assetRepo.ListByOwner(dbctx.Context{Ctx: ctx}, ownerID)
	if err != nil {
		return OwnerWipeResult{}, fmt.Errorf("list assets for owner: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(owned))
	for _, a := range owned {
		if a != nil {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return OwnerWipeResult{FailedFileNames: []string{}, Status: BatchSucceeded}, nil
	}
	batch := s.DeleteAssets(ctx, ownerID, ids)
	return OwnerWipeResult{
		Deleted:         batch.DeletedCount,
		Failed:          len(batch.FailedFileNames),
		FailedFileNames: batch.FailedFileNames,
		Status:          batch.Status,
	}, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
