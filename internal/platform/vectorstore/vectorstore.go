package vectorstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Provider names accepted by VECTOR_PROVIDER.
const (
	ProviderPinecone = "pinecone"
	ProviderQdrant   = "qdrant"
	ProviderPGVector = "pgvector"
	ProviderDisabled = "disabled"
)

// VectorStore is the delete surface the deletion engine needs from an embedding index.
// Deleting ids that do not exist is a no-op for every provider.
type VectorStore interface {
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
}

// OwnerNamespace is the logical namespace holding every chunk vector of an owner's assets.
func OwnerNamespace(ownerID uuid.UUID) string {
	return "assets:user:" + ownerID.String()
}

// Qualify joins a provider prefix and a logical namespace.
func Qualify(prefix, namespace string) string {
	prefix = strings.TrimSpace(prefix)
	namespace = strings.TrimSpace(namespace)
	switch {
	case prefix == "":
		return namespace
	case namespace == "":
		return prefix
	default:
		return prefix + ":" + namespace
	}
}
