package assets

import (
	"strings"

	"github.com/yungbote/knowledge-backend/internal/domain/chat"
)

// ReferenceMatcher identifies chat attachment parts that point at one asset.
// A part matches when its url equals FileURL, its url contains FileKey, or its
// filename equals FileName. Blank fields never match; others compare verbatim.
type ReferenceMatcher struct {
	FileURL  string
	FileKey  string
	FileName string
}

func NewReferenceMatcher(fileURL, fileKey, fileName string) ReferenceMatcher {
	return ReferenceMatcher{FileURL: fileURL, FileKey: fileKey, FileName: fileName}
}

func (m ReferenceMatcher) IsZero() bool {
	return blank(m.FileURL) && blank(m.FileKey) && blank(m.FileName)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Matches reports whether p is a file part referencing the asset.
// Parts without a type, or of any other type, never match.
func (m ReferenceMatcher) Matches(p chat.Part) bool {
	if p.Type != chat.PartTypeFile {
		return false
	}
	if !blank(m.FileURL) && p.URL == m.FileURL {
		return true
	}
	if !blank(m.FileKey) && p.URL != "" && strings.Contains(p.URL, m.FileKey) {
		return true
	}
	if !blank(m.FileName) && p.Filename == m.FileName {
		return true
	}
	return false
}
