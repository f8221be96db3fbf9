package llm

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}

// NewUserMessage returns a user-role message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
