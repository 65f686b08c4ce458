package memory

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single user or assistant message kept in a conversation window.
// Turns are values; the store never hands out references to its own slice.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrInvalidRole matches any *InvalidRoleError.
var ErrInvalidRole = errors.New("invalid role")

// InvalidRoleError reports an Append with a role outside {user, assistant}.
type InvalidRoleError struct {
	Role Role
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("memory: invalid role %q", string(e.Role))
}

func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}
