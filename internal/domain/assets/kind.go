package assets

// Kind names the relational table an asset lives in.
type Kind string

const (
	KindDocument        Kind = "document"
	KindLibraryDocument Kind = "library_document"
	KindImageAnalysis   Kind = "image_analysis"
)

// Kinds lists every asset variant in lookup order.
var Kinds = []Kind{KindDocument, KindLibraryDocument, KindImageAnalysis}

func (k Kind) Valid() bool {
	switch k {
	case KindDocument, KindLibraryDocument, KindImageAnalysis:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }
