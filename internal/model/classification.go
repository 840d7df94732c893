package model

// Classification is the result of categorizing a single transaction label.
// Every classification call yields one of these; failures degrade to
// CategoryUnknown rather than surfacing as errors.
type Classification struct {
	Category   string  `json:"category"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Classification sources.
const (
	SourceRule = "rule"
	SourceAI   = "ai"
	SourceNone = "none"
)

// Well-known categories. The engine treats category names as opaque tokens;
// these two are the only ones it produces itself.
const (
	CategoryUnknown          = "Unknown"
	CategoryInternalTransfer = "Internal Transfer"
)

// Unknown returns the degraded classification used when no rule matches and
// the AI collaborator is unavailable.
func Unknown(source string) Classification {
	return Classification{Category: CategoryUnknown, Source: source, Confidence: 0}
}
