package domain

import (
	"github.com/yungbote/knowledge-backend/internal/domain/assets"
	"github.com/yungbote/knowledge-backend/internal/domain/chat"
)

type AssetKind = assets.Kind

const (
	AssetKindDocument        = assets.KindDocument
	AssetKindLibraryDocument = assets.KindLibraryDocument
	AssetKindImageAnalysis   = assets.KindImageAnalysis
)

type Asset = assets.Asset
type Document = assets.Document
type LibraryDocument = assets.LibraryDocument
type ImageAnalysis = assets.ImageAnalysis
type AssetChunk = assets.Chunk
type ReferenceMatcher = assets.ReferenceMatcher

var AssetChunkVectorIDs = assets.VectorIDs

var AssetKinds = assets.Kinds

type ChatThread = chat.ChatThread
type ChatMessage = chat.ChatMessage
type ChatPart = chat.Part
