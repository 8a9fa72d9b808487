package domain

// Pipeline defaults.
const (
	// DefaultRetrievalK bounds semantic results per query.
	DefaultRetrievalK = 5

	// DefaultScreenshotCap bounds screenshot payloads per request.
	DefaultScreenshotCap = 3

	// MaxScreenshotCap is the largest cap accepted from configuration.
	MaxScreenshotCap = 5

	// DefaultHistoryWindow is how many recent turns the optimizer sees.
	DefaultHistoryWindow = 3

	// EmptyContextSentinel replaces blank context so generation is told
	// explicitly that nothing was found.
	EmptyContextSentinel = "No relevant data found in user's projects."
)

// ChatRequest is the input of a chat turn.
type ChatRequest struct {
	Owner Owner

	// Query is the raw user text.
	Query string

	// History is the prior conversation, oldest first.
	History []ConversationTurn

	// SubCollection optionally narrows retrieval to one project id.
	SubCollection string
}

// AssembledContext is the merged output of direct and semantic retrieval.
type AssembledContext struct {
	// Text is the context handed to generation.
	Text string

	// Documents are the ranked semantic hits.
	Documents []RetrievalResult

	// SubCollection is the filter that was applied, explicit or inferred.
	SubCollection string

	// RetrievalFailed is set when the embedding step failed.
	RetrievalFailed bool
}

// IndexBreakdown counts workspace rows seen during indexing.
type IndexBreakdown struct {
	Projects int `json:"projects"`
	Assets   int `json:"slides"`
	Tasks    int `json:"todos"`
}

// IndexReport is the outcome of indexing one owner.
type IndexReport struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	IndexedCount int            `json:"indexed_count"`
	SkippedCount int            `json:"skipped_count"`
	Breakdown    IndexBreakdown `json:"breakdown"`
}

// ContextReport is the diagnostic view of retrieval for one query.
type ContextReport struct {
	Query     string            `json:"query"`
	Documents []RetrievalResult `json:"documents"`
	Context   string            `json:"context"`
	Success   bool              `json:"success"`
}

// AssetDescription is the parsed output of description generation.
type AssetDescription struct {
	ContentType string `json:"content_type"`
	Description string `json:"description"`
}

// AnalysisRequest asks a question about one rendered asset.
type AnalysisRequest struct {
	Owner Owner

	// Image is base64 data, optionally with a data: URI prefix.
	Image string

	// Query is the question; a default analysis prompt is used when empty.
	Query string

	// ProjectID adds project context when set.
	ProjectID string
}

// ImagePayload is a base64 image ready for multimodal prompting.
type ImagePayload struct {
	// MIMEType is the image media type, e.g. image/png.
	MIMEType string

	// Data is standard base64 without a data URI prefix.
	Data string
}

// DataURI renders the payload as a data: URI.
func (p ImagePayload) DataURI() string {
	mime := p.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + p.Data
}

// ChatAnswer is the non-streaming form of a chat turn.
type ChatAnswer struct {
	Success     bool   `json:"success"`
	Answer      string `json:"answer"`
	ContextUsed bool   `json:"context_used"`
}
