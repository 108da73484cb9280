// Package core holds the shared types exchanged between the planner,
// memory subsystem, tool dispatcher, and engine.
package core

import "context"

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged unit in an ordered completion sequence.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Completer is the opaque language-model completion capability.
// Given an ordered sequence of role-tagged messages it returns generated
// text, or an error for network/auth/rate-limit failures. Callers treat
// errors as soft: every externally observable failure path ends in a
// user-facing string, never a crash.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
