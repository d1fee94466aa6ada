package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/knowledge-backend/internal/http/response"
	"github.com/yungbote/knowledge-backend/internal/platform/ctxutil"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/services"
)

// MaxBatchDeleteIDs bounds POST /api/assets/delete.
const MaxBatchDeleteIDs = 1000

type AssetHandler struct {
	log     *logger.Logger
	deleter services.AssetDeleter
}

func NewAssetHandler(log *logger.Logger, deleter services.AssetDeleter) *AssetHandler {
	return &AssetHandler{log: log.With("handler", "AssetHandler"), deleter: deleter}
}

type deleteAssetResponse struct {
	OK               bool      `json:"ok"`
	AssetID          uuid.UUID `json:"asset_id"`
	Kind             string    `json:"kind,omitempty"`
	AlreadyGone      bool      `json:"already_gone,omitempty"`
	VectorsDeleted   int       `json:"vectors_deleted"`
	ChunksDeleted    int64     `json:"chunks_deleted"`
	MessagesScrubbed int       `json:"messages_scrubbed"`
	Warnings         []string  `json:"warnings"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=1000,dive,required,uuid"`
}

type batchDeleteResponse struct {
	DeletedCount    int      `json:"deleted_count"`
	FailedFileNames []string `json:"failed_file_names"`
	Status          string   `json:"status"`
}

type ownerWipeResponse struct {
	Deleted         int      `json:"deleted"`
	Failed          int      `json:"failed"`
	FailedFileNames []string `json:"failed_file_names"`
	Status          string   `json:"status"`
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// DELETE /api/assets/:id
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil || assetID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_asset_id", errors.New("asset id must be a uuid"))
		return
	}

	res := h.deleter.DeleteAsset(c.Request.Context(), ownerID, assetID)
	if res.Err != nil {
		status, code := deletionStatus(res.Err)
		response.RespondError(c, status, code, res.Err)
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	response.RespondOK(c, deleteAssetResponse{
		OK:               true,
		AssetID:          res.AssetID,
		Kind:             string(res.Kind),
		AlreadyGone:      res.AlreadyGone,
		VectorsDeleted:   res.VectorsDeleted,
		ChunksDeleted:    res.ChunksDeleted,
		MessagesScrubbed: res.MessagesScrubbed,
		Warnings:         warnings,
	})
}

// POST /api/assets/delete
func (h *AssetHandler) DeleteAssets(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_asset_id", errors.New("every id must be a uuid"))
			return
		}
		ids = append(ids, id)
	}

	out := h.deleter.DeleteAssets(c.Request.Context(), ownerID, ids)
	response.RespondStatus(c, batchHTTPStatus(out.Status), batchDeleteResponse{
		DeletedCount:    out.DeletedCount,
		FailedFileNames: out.FailedFileNames,
		Status:          string(out.Status),
	})
}

// DELETE /api/assets
func (h *AssetHandler) DeleteAllAssets(c *gin.Context) {
	ownerID, ok := callerID(c)
	if !ok {
		return
	}
	out, err := h.deleter.DeleteAllAssetsForOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.log.Error("Owner wipe could not start", "owner_id", ownerID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_assets_failed", err)
		return
	}
	failed := out.FailedFileNames
	if failed == nil {
		failed = []string{}
	}
	response.RespondStatus(c, batchHTTPStatus(out.Status), ownerWipeResponse{
		Deleted:         out.Deleted,
		Failed:          out.Failed,
		FailedFileNames: failed,
		Status:          string(out.Status),
	})
}

func batchHTTPStatus(s services.BatchStatus) int {
	switch s {
	case services.BatchPartial:
		return http.StatusMultiStatus
	case services.BatchFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func deletionStatus(err error) (int, string) {
	code, ok := services.DeletionCode(err)
	if !ok {
		return http.StatusInternalServerError, "delete_failed"
	}
	switch code {
	case services.DeletionNotFound:
		return http.StatusNotFound, string(code)
	case services.DeletionForbidden:
		return http.StatusForbidden, string(code)
	case services.DeletionInvalidArgument:
		return http.StatusBadRequest, "invalid_asset_id"
	default:
		return http.StatusInternalServerError, string(code)
	}
}
