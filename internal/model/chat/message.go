package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Role 标识一条消息的发送方。
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole 校验并规范化角色字符串。
func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleSystem, RoleUser, RoleAssistant:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Turn is one message in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn builds a Turn after validating its role.
func NewTurn(role Role, content string) (Turn, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Turn{}, err
	}
	return Turn{Role: role, Content: content}, nil
}
