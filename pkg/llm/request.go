package llm

// DefaultTemperature is the sampling temperature sent with every chat request.
const DefaultTemperature = 0.7

// ChatRequest represents a chat completion request (OpenAI-compatible).
type ChatRequest struct {
	Model       string    `json:"model"`       // Model identifier (e.g., "openai/gpt-4o-mini")
	Messages    []Message `json:"messages"`    // Conversation history, system message first
	Temperature float64   `json:"temperature"` // Creativity (0.0-2.0)
}
