package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type recordedDelete struct {
	path      string
	apiKey    string
	namespace string
	ids       []string
}

func newDataPlane(t *testing.T, status int) (*httptest.Server, *[]recordedDelete) {
	t.Helper()
	var mu sync.Mutex
	calls := []recordedDelete{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body DeleteRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedDelete{
			path:      r.URL.Path,
			apiKey:    r.Header.Get("Api-Key"),
			namespace: body.Namespace,
			ids:       body.IDs,
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestDeleteIDsPostsQualifiedNamespace(t *testing.T) {
	srv, calls := newDataPlane(t, http.StatusOK)
	log := logger.Nop()
	pc, err := New(log, Config{APIKey: "pk-test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	vs, err := NewVectorStore(context.Background(), log, pc, StoreConfig{
		IndexName:       "kb",
		IndexHost:       srv.URL,
		NamespacePrefix: "kb",
	})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}

	if err := vs.DeleteIDs(context.Background(), "assets:user:u1", []string{"v1", "v2"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("calls: want=1 got=%d", len(*calls))
	}
	got := (*calls)[0]
	if got.path != "/vectors/delete" {
		t.Fatalf("path: want=/vectors/delete got=%q", got.path)
	}
	if got.apiKey != "pk-test" {
		t.Fatalf("api key header: got=%q", got.apiKey)
	}
	if got.namespace != "kb:assets:user:u1" {
		t.Fatalf("namespace: want=kb:assets:user:u1 got=%q", got.namespace)
	}
	if strings.Join(got.ids, ",") != "v1,v2" {
		t.Fatalf("ids: want=v1,v2 got=%v", got.ids)
	}
}

func TestDeleteIDsEmptyIsNoop(t *testing.T) {
	srv, calls := newDataPlane(t, http.StatusOK)
	log := logger.Nop()
	pc, _ := New(log, Config{APIKey: "pk-test"})
	vs, err := NewVectorStore(context.Background(), log, pc, StoreConfig{IndexName: "kb", IndexHost: srv.URL})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	if err := vs.DeleteIDs(context.Background(), "ns", nil); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("calls: want=0 got=%d", len(*calls))
	}
}

func TestDeleteIDsSurfacesHTTPError(t *testing.T) {
	srv, _ := newDataPlane(t, http.StatusServiceUnavailable)
	log := logger.Nop()
	pc, _ := New(log, Config{APIKey: "pk-test"})
	vs, _ := NewVectorStore(context.Background(), log, pc, StoreConfig{IndexName: "kb", IndexHost: srv.URL})
	err := vs.DeleteIDs(context.Background(), "ns", []string{"v1"})
	if err == nil || !strings.Contains(err.Error(), "http 503") {
		t.Fatalf("DeleteIDs: want http 503 error got=%v", err)
	}
}

func TestNewVectorStoreResolvesHostViaDescribeIndex(t *testing.T) {
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes/kb" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"kb","host":"kb-abc.svc.pinecone.io","dimension":1536}`))
	}))
	defer control.Close()

	log := logger.Nop()
	pc, _ := New(log, Config{APIKey: "pk-test", BaseURL: control.URL})
	vs, err := NewVectorStore(context.Background(), log, pc, StoreConfig{IndexName: "kb"})
	if err != nil {
		t.Fatalf("NewVectorStore: %v", err)
	}
	if host := vs.(*vectorStore).indexHost; host != "kb-abc.svc.pinecone.io" {
		t.Fatalf("host: want=kb-abc.svc.pinecone.io got=%q", host)
	}
}
