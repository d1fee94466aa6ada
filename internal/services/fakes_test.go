package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
)

type fakeVectorStore struct {
	mu         sync.Mutex
	calls      [][]string
	namespaces []string
	failOnCall int // 1-based; zero never fails
	err        error
}

func (f *fakeVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), ids...))
	f.namespaces = append(f.namespaces, namespace)
	if f.failOnCall > 0 && len(f.calls) == f.failOnCall {
		if f.err != nil {
			return f.err
		}
		return fmt.Errorf("vector store unavailable")
	}
	return nil
}

func (f *fakeVectorStore) callSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, len(c))
	}
	return out
}

type fakeAssetRepo struct {
	mu          sync.Mutex
	assets      map[uuid.UUID]*types.Asset
	getErr      error
	listErr     error
	deleteErr   map[uuid.UUID]error
	staleDelete map[uuid.UUID]bool
	deleteCalls int
}

func newFakeAssetRepo(assets ...*types.Asset) *fakeAssetRepo {
	f := &fakeAssetRepo{
		assets:      map[uuid.UUID]*types.Asset{},
		deleteErr:   map[uuid.UUID]error{},
		staleDelete: map[uuid.UUID]bool{},
	}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

func (f *fakeAssetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAssetRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*types.Asset{}
	for _, a := range f.assets {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) DeleteByID(dbc dbctx.Context, kind types.AssetKind, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if err := f.deleteErr[id]; err != nil {
		return false, err
	}
	if f.staleDelete[id] {
		// another caller removed the row between resolve and delete
		delete(f.assets, id)
		return false, nil
	}
	_, ok := f.assets[id]
	delete(f.assets, id)
	return ok, nil
}

func (f *fakeAssetRepo) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.assets[id]
	return ok
}

type fakeChunkRepo struct {
	mu        sync.Mutex
	chunks    map[uuid.UUID][]*types.AssetChunk
	listErr   error
	deleteErr error
}

func newFakeChunkRepo() *fakeChunkRepo {
	return &fakeChunkRepo{chunks: map[uuid.UUID][]*types.AssetChunk{}}
}

func (f *fakeChunkRepo) seed(assetID uuid.UUID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.chunks[assetID] = append(f.chunks[assetID], &types.AssetChunk{
			ID:         uuid.New(),
			AssetID:    assetID,
			ChunkIndex: i,
			VectorID:   fmt.Sprintf("%s-%d", assetID, i),
		})
	}
}

func (f *fakeChunkRepo) Create(dbc dbctx.Context, chunks []*types.AssetChunk) ([]*types.AssetChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range chunks {
		f.chunks[c.AssetID] = append(f.chunks[c.AssetID], c)
	}
	return chunks, nil
}

func (f *fakeChunkRepo) ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]*types.AssetChunk{}, f.chunks[assetID]...), nil
}

func (f *fakeChunkRepo) DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := int64(len(f.chunks[assetID]))
	delete(f.chunks, assetID)
	return n, nil
}

func (f *fakeChunkRepo) count(assetID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks[assetID])
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[uuid.UUID][]*types.ChatMessage
	listCalls int
	listErr   error
	updates   []uuid.UUID
	updateErr map[uuid.UUID]error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  map[uuid.UUID][]*types.ChatMessage{},
		updateErr: map[uuid.UUID]error{},
	}
}

func (f *fakeMessageRepo) add(threadID uuid.UUID, parts string) *types.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &types.ChatMessage{
		ID:       uuid.New(),
		ThreadID: threadID,
		Seq:      int64(len(f.messages[threadID]) + 1),
		Role:     "user",
		Parts:    datatypes.JSON([]byte(parts)),
	}
	f.messages[threadID] = append(f.messages[threadID], m)
	return m
}

func (f *fakeMessageRepo) Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range rows {
		f.messages[m.ThreadID] = append(f.messages[m.ThreadID], m)
	}
	return rows, nil
}

func (f *fakeMessageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*types.ChatMessage, 0, len(f.messages[threadID]))
	for _, m := range f.messages[threadID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateParts(dbc dbctx.Context, id uuid.UUID, parts datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if err := f.updateErr[id]; err != nil {
		return err
	}
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.ID == id {
				m.Parts = parts
				return nil
			}
		}
	}
	return fmt.Errorf("message %s not found", id)
}

func (f *fakeMessageRepo) parts(id uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.ID == id {
				return string(m.Parts)
			}
		}
	}
	return ""
}
