package assets

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset is the kind-independent view the deletion pipeline works on.
type Asset struct {
	ID        uuid.UUID
	Kind      Kind
	OwnerID   uuid.UUID
	ChatID    *uuid.UUID
	Title     string
	FileName  string
	FileURL   string
	FileKey   string
	MimeType  string
	Status    string
	CreatedAt time.Time
}

// DisplayName is what batch results report for a failed asset.
func (a *Asset) DisplayName() string {
	if a == nil {
		return ""
	}
	if name := strings.TrimSpace(a.FileName); name != "" {
		return name
	}
	if title := strings.TrimSpace(a.Title); title != "" {
		return title
	}
	return a.ID.String()
}

func (a *Asset) HasChat() bool {
	return a != nil && a.ChatID != nil && *a.ChatID != uuid.Nil
}

func (a *Asset) Matcher() ReferenceMatcher {
	if a == nil {
		return ReferenceMatcher{}
	}
	return NewReferenceMatcher(a.FileURL, a.FileKey, a.FileName)
}
