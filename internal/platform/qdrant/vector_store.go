package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/knowledge-backend/internal/platform/ctxutil"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

const (
	maxErrorBodyBytes = 1024
	maxBodyBytes      = 10 * maxErrorBodyBytes
)

// Point ids are UUIDv5 of "namespace|vectorID" under this root, shared with the ingestion writer.
var pointIDNamespaceUUID = uuid.MustParse("0f1705d1-2c3f-4e40-b2f4-f855f7d3c8e8")

type vectorStore struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	nsPrefix string
	http     *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type deletePointsRequest struct {
	Points []string `json:"points"`
}

func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (vectorstore.VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	s := &vectorStore{
		log:      log.With("service", "QdrantVectorStore"),
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		nsPrefix: strings.TrimSpace(cfg.NamespacePrefix),
		http:     &http.Client{Timeout: cfg.Timeout},
	}
	if err := s.verifyReady(ctx); err != nil {
		return nil, err
	}

	s.log.Info("Qdrant vector store selected",
		"provider", vectorstore.ProviderQdrant,
		"url", s.baseURL,
		"collection", cfg.Collection,
		"namespace_prefix", s.nsPrefix,
	)
	return s, nil
}

// DeleteIDs removes the points for ids in one call. Blank and repeated ids are dropped.
func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil {
		return fmt.Errorf("vector store unavailable")
	}
	ns := vectorstore.Qualify(s.nsPrefix, namespace)
	req := deletePointsRequest{Points: make([]string, 0, len(ids))}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		pid := s.pointID(ns, id)
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		req.Points = append(req.Points, pid)
	}
	if len(req.Points) == 0 {
		return nil
	}
	_, err := s.call(ctx, "delete", http.MethodPost, s.collectionPath("/points/delete?wait=true"), req)
	return err
}

// verifyReady checks the node answers /readyz and the collection exists.
func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"
	resp, _, err := s.send(ctx, op, http.MethodGet, "/readyz", nil)
	if err != nil {
		return err
	}
	if !isSuccess(resp.StatusCode) {
		return &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	_, err = s.call(ctx, op, http.MethodGet, s.collectionPath(""), nil)
	return err
}

// call sends a request and unwraps the qdrant response envelope.
func (s *vectorStore) call(ctx context.Context, op, method, path string, in any) (json.RawMessage, error) {
	resp, raw, err := s.send(ctx, op, method, path, in)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if msg := envelopeStatusError(env.Status); msg != "" {
		return nil, &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}
	return env.Result, nil
}

// send performs the HTTP round trip and returns the (bounded) body.
func (s *vectorStore) send(ctx context.Context, op, method, path string, in any) (*http.Response, []byte, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, nil, opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return nil, nil, opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := strings.TrimSpace(s.cfg.APIKey); key != "" {
		req.Header.Set("api-key", key)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, nil, transportError(op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	return resp, raw, nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

func transportError(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return opErr(op, OperationErrorTimeout, "qdrant request timed out", err)
	}
	return opErr(op, OperationErrorTransportFailed, "qdrant request failed", err)
}

// envelopeStatusError returns "" for ok statuses. Qdrant reports either a
// string ("ok", "acknowledged", "completed") or an object {"error": "..."}.
func envelopeStatusError(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		switch strings.ToLower(str) {
		case "ok", "acknowledged", "completed":
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", str)
	}
	var obj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &obj) == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return "qdrant status=" + trimmed
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func (s *vectorStore) pointID(qualifiedNS, vectorID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(qualifiedNS+"|"+vectorID)).String()
}

func (s *vectorStore) collectionPath(suffix string) string {
	return "/collections/" + s.cfg.Collection + suffix
}
