package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/knowledge-backend/internal/platform/apierr"
)

type DeletionErrorCode string

const (
	DeletionNotFound             DeletionErrorCode = "not_found"
	DeletionForbidden            DeletionErrorCode = "forbidden"
	DeletionInvalidArgument      DeletionErrorCode = "invalid_argument"
	DeletionChunkLookupFailed    DeletionErrorCode = "chunk_lookup_failed"
	DeletionIndexDeleteFailed    DeletionErrorCode = "index_delete_failed"
	DeletionScrubFailed          DeletionErrorCode = "scrub_failed"
	DeletionMetadataDeleteFailed DeletionErrorCode = "metadata_delete_failed"
)

// Retryable reports whether re-running the whole asset deletion may succeed.
func (c DeletionErrorCode) Retryable() bool {
	switch c {
	case DeletionChunkLookupFailed, DeletionIndexDeleteFailed, DeletionScrubFailed, DeletionMetadataDeleteFailed:
		return true
	default:
		return false
	}
}

// Pipeline step names, also used as span and metric labels.
const (
	StepResolve        = "resolve"
	StepListChunks     = "list_chunks"
	StepVectorDelete   = "vector_delete"
	StepScrub          = "scrub_references"
	StepMetadataDelete = "metadata_delete"
)

type DeletionError struct {
	Code    DeletionErrorCode
	AssetID uuid.UUID
	Step    string
	Cause   error
}

func (e *DeletionError) Error() string {
	if e == nil {
		return "asset deletion failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("asset %s: %s at %s: %v", e.AssetID, e.Code, e.Step, e.Cause)
	}
	return fmt.Sprintf("asset %s: %s at %s", e.AssetID, e.Code, e.Step)
}

func (e *DeletionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is lets errors.Is match the shared sentinels for not-found, forbidden and invalid input.
func (e *DeletionError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case DeletionNotFound:
		return target == apierr.ErrNotFound
	case DeletionForbidden:
		return target == apierr.ErrForbidden
	case DeletionInvalidArgument:
		return target == apierr.ErrInvalidArgument
	}
	return false
}

func newDeletionError(code DeletionErrorCode, assetID uuid.UUID, step string, cause error) *DeletionError {
	return &DeletionError{Code: code, AssetID: assetID, Step: step, Cause: cause}
}

// DeletionCode extracts the code of a *DeletionError anywhere in err's chain.
func DeletionCode(err error) (DeletionErrorCode, bool) {
	var de *DeletionError
	if errors.As(err, &de) && de != nil {
		return de.Code, true
	}
	return "", false
}

// IndexDeleteError records which vector batch failed. Batches before it were applied.
type IndexDeleteError struct {
	BatchIndex int
	BatchCount int
	Attempted  int
	Cause      error
}

func (e *IndexDeleteError) Error() string {
	if e == nil {
		return "vector index delete failed"
	}
	return fmt.Sprintf(
		"vector index delete failed on batch %d/%d (%d ids applied before failure): %v",
		e.BatchIndex+1,
		e.BatchCount,
		e.Attempted,
		e.Cause,
	)
}

func (e *IndexDeleteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

var errVectorStoreUnavailable = errors.New("vector store unavailable")
