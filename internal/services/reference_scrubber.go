package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/knowledge-backend/internal/data/repos"
	types "github.com/yungbote/knowledge-backend/internal/domain"
	domainchat "github.com/yungbote/knowledge-backend/internal/domain/chat"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type ReferenceScrubber interface {
	// Scrub removes parts matching matcher from every message in thread. Persist failures
	// do not stop the remaining messages; they are returned joined.
	Scrub(dbc dbctx.Context, threadID uuid.UUID, matcher types.ReferenceMatcher) (ScrubResult, error)
}

// ErrScrubListFailed marks a Scrub that could not read the thread at all, so no
// message was examined.
var ErrScrubListFailed = errors.New("list thread messages failed")

type ScrubResult struct {
	MessagesScanned  int
	MessagesModified int
	PartsRemoved     int
	Failures         []ScrubFailure
}

type ScrubFailure struct {
	MessageID uuid.UUID
	Err       error
}

type referenceScrubber struct {
	log         *logger.Logger
	messageRepo repos.ChatMessageRepo
}

func NewReferenceScrubber(baseLog *logger.Logger, messageRepo repos.ChatMessageRepo) ReferenceScrubber {
	return &referenceScrubber{
		log:         baseLog.With("service", "ReferenceScrubber"),
		messageRepo: messageRepo,
	}
}

func (s *referenceScrubber) Scrub(dbc dbctx.Context, threadID uuid.UUID, matcher types.ReferenceMatcher) (ScrubResult, error) {
	res := ScrubResult{}
	if threadID == uuid.Nil || matcher.IsZero() {
		return res, nil
	}
	msgs, err := s.messageRepo.ListByThread(dbc, threadID)
	if err != nil {
		return res, fmt.Errorf("%w: thread %s: %w", ErrScrubListFailed, threadID, err)
	}

	var errs []error
	for _, m := range msgs {
		if m == nil {
			continue
		}
		res.MessagesScanned++
		kept, removed, changed := FilterParts(m.Parts, matcher)
		if !changed {
			continue
		}
		if err := s.messageRepo.UpdateParts(dbc, m.ID, datatypes.JSON(kept)); err != nil {
			s.log.Warn("Failed to persist scrubbed message parts",
				"thread_id", threadID,
				"message_id", m.ID,
				"error", err,
			)
			res.Failures = append(res.Failures, ScrubFailure{MessageID: m.ID, Err: err})
			errs = append(errs, fmt.Errorf("message %s: %w", m.ID, err))
			continue
		}
		res.MessagesModified++
		res.PartsRemoved += removed
	}
	return res, errors.Join(errs...)
}

// FilterParts drops parts matched by matcher and keeps everything else in order.
// Values that are not a parts array, and parts without a type, are left alone.
// When nothing matches the original bytes are returned with changed=false.
func FilterParts(raw []byte, matcher types.ReferenceMatcher) (out []byte, removed int, changed bool) {
	parts, ok := domainchat.DecodeParts(raw)
	if !ok {
		return raw, 0, false
	}
	kept := make([]json.RawMessage, 0, len(parts))
	for _, p := range parts {
		if part, ok := domainchat.ParsePart(p); ok && matcher.Matches(part) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	if removed == 0 {
		return raw, 0, false
	}
	return domainchat.EncodeParts(kept), removed, true
}
