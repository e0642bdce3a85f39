// Package completion describes chat completion requests independent of the LLM vendor.
package completion

// Role of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role
	Content string
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant builds an assistant message.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Request is a chat completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	Stop        []string
	// JSON asks the provider for a single JSON object response.
	JSON bool
}
