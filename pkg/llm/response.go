package llm

// ChatResponse represents a chat completion response (OpenAI-compatible).
// Providers may answer with an embedded Error and no choices, even on HTTP 200.
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`

	Error *APIError `json:"error,omitempty"`
}

// Choice is a single completion candidate.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}
