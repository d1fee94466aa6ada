package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/knowledge-backend/internal/platform/ctxutil"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/services"
)

type fakeDeleter struct {
	single   services.DeleteResult
	batch    services.BatchDeleteResult
	wipe     services.OwnerWipeResult
	wipeErr  error
	gotOwner uuid.UUID
	gotIDs   []uuid.UUID
}

func (f *fakeDeleter) DeleteAsset(ctx context.Context, ownerID, assetID uuid.UUID) services.DeleteResult {
	f.gotOwner = ownerID
	f.gotIDs = []uuid.UUID{assetID}
	res := f.single
	res.AssetID = assetID
	return res
}

func (f *fakeDeleter) DeleteAssets(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) services.BatchDeleteResult {
	f.gotOwner = ownerID
	f.gotIDs = ids
	return f.batch
}

func (f *fakeDeleter) DeleteAllAssetsForOwner(ctx context.Context, ownerID uuid.UUID) (services.OwnerWipeResult, error) {
	f.gotOwner = ownerID
	return f.wipe, f.wipeErr
}

func newAssetRouter(d services.AssetDeleter, owner uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if owner != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: owner})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	h := NewAssetHandler(logger.Nop(), d)
	r.DELETE("/api/assets/:id", h.DeleteAsset)
	r.POST("/api/assets/delete", h.DeleteAssets)
	r.DELETE("/api/assets", h.DeleteAllAssets)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestDeleteAssetMapsOutcomes(t *testing.T) {
	owner := uuid.New()
	assetID := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: &services.DeletionError{Code: services.DeletionNotFound}, status: http.StatusNotFound, code: "not_found"},
		{name: "forbidden", err: &services.DeletionError{Code: services.DeletionForbidden}, status: http.StatusForbidden, code: "forbidden"},
		{name: "index", err: &services.DeletionError{Code: services.DeletionIndexDeleteFailed}, status: http.StatusInternalServerError, code: "index_delete_failed"},
		{name: "untyped", err: errors.New("boom"), status: http.StatusInternalServerError, code: "delete_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDeleter{single: services.DeleteResult{Err: tc.err}}
			rec := serve(newAssetRouter(d, owner), http.MethodDelete, "/api/assets/"+assetID.String(), "")
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, got)
			}
		})
	}
}

func TestDeleteAssetSuccess(t *testing.T) {
	owner := uuid.New()
	assetID := uuid.New()
	d := &fakeDeleter{single: services.DeleteResult{Success: true, VectorsDeleted: 7, MessagesScrubbed: 2}}
	rec := serve(newAssetRouter(d, owner), http.MethodDelete, "/api/assets/"+assetID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d (%s)", rec.Code, rec.Body.String())
	}
	if d.gotOwner != owner || d.gotIDs[0] != assetID {
		t.Fatalf("deleter args: owner=%s ids=%v", d.gotOwner, d.gotIDs)
	}
	var body deleteAssetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || body.VectorsDeleted != 7 || body.MessagesScrubbed != 2 || body.Warnings == nil {
		t.Fatalf("body: got %+v", body)
	}
}

func TestDeleteAssetRejectsBadIDAndMissingCaller(t *testing.T) {
	d := &fakeDeleter{}
	rec := serve(newAssetRouter(d, uuid.New()), http.MethodDelete, "/api/assets/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_asset_id" {
		t.Fatalf("bad id: status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(newAssetRouter(d, uuid.Nil), http.MethodDelete, "/api/assets/"+uuid.NewString(), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no caller: want=401 got=%d", rec.Code)
	}
}

func TestDeleteAssetsStatusMapping(t *testing.T) {
	owner := uuid.New()
	ids := []string{uuid.NewString(), uuid.NewString()}
	body := `{"ids":["` + strings.Join(ids, `","`) + `"]}`

	cases := []struct {
		status services.BatchStatus
		want   int
	}{
		{status: services.BatchSucceeded, want: http.StatusOK},
		{status: services.BatchPartial, want: http.StatusMultiStatus},
		{status: services.BatchFailed, want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		d := &fakeDeleter{batch: services.BatchDeleteResult{
			DeletedCount:    1,
			FailedFileNames: []string{"b.pdf"},
			Status:          tc.status,
		}}
		rec := serve(newAssetRouter(d, owner), http.MethodPost, "/api/assets/delete", body)
		if rec.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.status, tc.want, rec.Code)
		}
		var out batchDeleteResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Status != string(tc.status) || out.DeletedCount != 1 || len(out.FailedFileNames) != 1 {
			t.Fatalf("%s: body %+v", tc.status, out)
		}
		if len(d.gotIDs) != 2 || d.gotIDs[0].String() != ids[0] {
			t.Fatalf("ids forwarded: got %v", d.gotIDs)
		}
	}
}

func TestDeleteAssetsValidatesBody(t *testing.T) {
	d := &fakeDeleter{}
	r := newAssetRouter(d, uuid.New())

	tooMany := make([]string, MaxBatchDeleteIDs+1)
	for i := range tooMany {
		tooMany[i] = `"` + uuid.NewString() + `"`
	}
	for name, body := range map[string]string{
		"empty object": `{}`,
		"empty ids":    `{"ids":[]}`,
		"bad uuid":     `{"ids":["nope"]}`,
		"too many":     `{"ids":[` + strings.Join(tooMany, ",") + `]}`,
		"not json":     `ids=1`,
	} {
		rec := serve(r, http.MethodPost, "/api/assets/delete", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want=400 got=%d", name, rec.Code)
		}
	}
	if d.gotIDs != nil {
		t.Fatalf("deleter must not be called for invalid bodies")
	}
}

func TestDeleteAllAssets(t *testing.T) {
	owner := uuid.New()
	d := &fakeDeleter{wipe: services.OwnerWipeResult{Status: services.BatchSucceeded}}
	rec := serve(newAssetRouter(d, owner), http.MethodDelete, "/api/assets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty wipe: want=200 got=%d", rec.Code)
	}
	var out ownerWipeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.FailedFileNames == nil || out.Deleted != 0 {
		t.Fatalf("body: %+v", out)
	}

	d = &fakeDeleter{wipe: services.OwnerWipeResult{Deleted: 3, Failed: 1, FailedFileNames: []string{"x"}, Status: services.BatchPartial}}
	if rec := serve(newAssetRouter(d, owner), http.MethodDelete, "/api/assets", ""); rec.Code != http.StatusMultiStatus {
		t.Fatalf("partial wipe: want=207 got=%d", rec.Code)
	}

	d = &fakeDeleter{wipeErr: errors.New("db down")}
	rec = serve(newAssetRouter(d, owner), http.MethodDelete, "/api/assets", "")
	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "list_assets_failed" {
		t.Fatalf("list failure: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
