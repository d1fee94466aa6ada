package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/knowledge-backend/internal/domain/assets"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

func TestFilterPartsRemovesOnlyKeyMatchAndKeepsOrder(t *testing.T) {
	raw := []byte(`[{"type":"text","text":"see attached"},{"type":"file","url":"https://x/key123/a.pdf"},{"type":"file","filename":"report.pdf"}]`)
	m := assets.NewReferenceMatcher("", "key123", "")

	out, removed, changed := FilterParts(raw, m)
	if !changed || removed != 1 {
		t.Fatalf("FilterParts: want removed=1 changed=true got removed=%d changed=%v", removed, changed)
	}
	want := `[{"type":"text","text":"see attached"},{"type":"file","filename":"report.pdf"}]`
	if string(out) != want {
		t.Fatalf("parts: want=%s got=%s", want, out)
	}
}

func TestFilterPartsKeepsPartsWithoutType(t *testing.T) {
	raw := []byte(`[{"url":"https://x/key123/a.pdf","filename":"a.pdf"},{"type":"","filename":"a.pdf"},"loose",42]`)
	m := assets.NewReferenceMatcher("https://x/key123/a.pdf", "key123", "a.pdf")

	out, removed, changed := FilterParts(raw, m)
	if changed || removed != 0 {
		t.Fatalf("FilterParts: want unchanged got removed=%d changed=%v", removed, changed)
	}
	if string(out) != string(raw) {
		t.Fatalf("parts: want=%s got=%s", raw, out)
	}
}

func TestFilterPartsKeepsPaddedOrRecasedType(t *testing.T) {
	raw := []byte(`[{"type":" file ","filename":"a.pdf"},{"type":"File","filename":"a.pdf"},{"type":"file\n","url":"https://x/key123/a.pdf"}]`)
	m := assets.NewReferenceMatcher("https://x/key123/a.pdf", "key123", "a.pdf")

	out, removed, changed := FilterParts(raw, m)
	if changed || removed != 0 {
		t.Fatalf("FilterParts: want unchanged got removed=%d changed=%v", removed, changed)
	}
	if string(out) != string(raw) {
		t.Fatalf("parts: want=%s got=%s", raw, out)
	}
}

func TestFilterPartsComparesFileNameVerbatim(t *testing.T) {
	raw := []byte(`[{"type":"file","filename":" a.pdf"},{"type":"file","filename":"a.pdf"}]`)

	out, removed, changed := FilterParts(raw, assets.NewReferenceMatcher("", "", " a.pdf"))
	if !changed || removed != 1 {
		t.Fatalf("FilterParts: want removed=1 changed=true got removed=%d changed=%v", removed, changed)
	}
	if want := `[{"type":"file","filename":"a.pdf"}]`; string(out) != want {
		t.Fatalf("parts: want=%s got=%s", want, out)
	}
}

func TestFilterPartsLeavesNonArrayValuesAlone(t *testing.T) {
	m := assets.NewReferenceMatcher("", "key123", "")
	for _, raw := range []string{``, `null`, `{"type":"file","url":"key123"}`, `[broken`} {
		out, _, changed := FilterParts([]byte(raw), m)
		if changed || string(out) != raw {
			t.Fatalf("FilterParts(%q): want unchanged got=%q changed=%v", raw, out, changed)
		}
	}
}

func TestScrubRewritesMatchingMessagesOnly(t *testing.T) {
	repo := newFakeMessageRepo()
	thread := uuid.New()
	hit := repo.add(thread, `[{"type":"text","text":"hi"},{"type":"file","url":"https://files/uploads/k1/a.pdf","filename":"a.pdf"}]`)
	missRaw := `[{"type":"text","text":"nothing here"},{"type":"file","url":"https://files/other.pdf","filename":"other.pdf"}]`
	miss := repo.add(thread, missRaw)

	s := NewReferenceScrubber(logger.Nop(), repo)
	res, err := s.Scrub(dbctx.Context{Ctx: context.Background()}, thread, assets.NewReferenceMatcher("", "k1", "a.pdf"))
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if res.MessagesScanned != 2 || res.MessagesModified != 1 || res.PartsRemoved != 1 {
		t.Fatalf("result: got %+v", res)
	}
	if len(repo.updates) != 1 || repo.updates[0] != hit.ID {
		t.Fatalf("updates: want=[%s] got=%v", hit.ID, repo.updates)
	}
	if got := repo.parts(hit.ID); got != `[{"type":"text","text":"hi"}]` {
		t.Fatalf("hit parts: got=%s", got)
	}
	if got := repo.parts(miss.ID); got != missRaw {
		t.Fatalf("miss parts changed: got=%s", got)
	}
}

func TestScrubWithoutMatchesIssuesNoUpdate(t *testing.T) {
	repo := newFakeMessageRepo()
	thread := uuid.New()
	raw := `[ {"type":"text","text":"spacing kept"} , {"type":"file","filename":"b.pdf"} ]`
	msg := repo.add(thread, raw)

	s := NewReferenceScrubber(logger.Nop(), repo)
	res, err := s.Scrub(dbctx.Context{Ctx: context.Background()}, thread, assets.NewReferenceMatcher("", "", "a.pdf"))
	if err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("updates: want=0 got=%d", len(repo.updates))
	}
	if res.MessagesModified != 0 {
		t.Fatalf("modified: want=0 got=%d", res.MessagesModified)
	}
	if got := repo.parts(msg.ID); got != raw {
		t.Fatalf("parts: want byte-identical got=%s", got)
	}
}

func TestScrubContinuesPastFailedUpdate(t *testing.T) {
	repo := newFakeMessageRepo()
	thread := uuid.New()
	first := repo.add(thread, `[{"type":"file","filename":"a.pdf"}]`)
	second := repo.add(thread, `[{"type":"file","filename":"a.pdf"},{"type":"text","text":"x"}]`)
	boom := errors.New("write conflict")
	repo.updateErr[first.ID] = boom

	s := NewReferenceScrubber(logger.Nop(), repo)
	res, err := s.Scrub(dbctx.Context{Ctx: context.Background()}, thread, assets.NewReferenceMatcher("", "", "a.pdf"))
	if !errors.Is(err, boom) {
		t.Fatalf("Scrub: want joined write error got %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].MessageID != first.ID {
		t.Fatalf("failures: got %+v", res.Failures)
	}
	if res.MessagesModified != 1 {
		t.Fatalf("modified: want=1 got=%d", res.MessagesModified)
	}
	if got := repo.parts(second.ID); got != `[{"type":"text","text":"x"}]` {
		t.Fatalf("second parts: got=%s", got)
	}
}

func TestScrubSkipsEmptyMatcherAndThread(t *testing.T) {
	repo := newFakeMessageRepo()
	s := NewReferenceScrubber(logger.Nop(), repo)
	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := s.Scrub(dbc, uuid.New(), assets.NewReferenceMatcher(" ", "", "")); err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if _, err := s.Scrub(dbc, uuid.Nil, assets.NewReferenceMatcher("", "k", "")); err != nil {
		t.Fatalf("Scrub: %v", err)
	}
	if repo.listCalls != 0 {
		t.Fatalf("list calls: want=0 got=%d", repo.listCalls)
	}
}

func TestScrubListFailureIsTyped(t *testing.T) {
	repo := newFakeMessageRepo()
	repo.listErr = errors.New("db down")
	thread := uuid.New()
	repo.add(thread, `[{"type":"file","filename":"a.pdf"}]`)

	s := NewReferenceScrubber(logger.Nop(), repo)
	res, err := s.Scrub(dbctx.Context{Ctx: context.Background()}, thread, assets.NewReferenceMatcher("", "", "a.pdf"))
	if !errors.Is(err, ErrScrubListFailed) {
		t.Fatalf("Scrub: want ErrScrubListFailed got=%v", err)
	}
	if res.MessagesScanned != 0 || len(repo.updates) != 0 {
		t.Fatalf("Scrub: want nothing scanned got scanned=%d updates=%d", res.MessagesScanned, len(repo.updates))
	}
}
