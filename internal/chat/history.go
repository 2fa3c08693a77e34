package chat

import (
	"fmt"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/llmtypes"
)

// ValidateHistory checks that history can start a turn: it is non-empty,
// uses known roles, has a system message only at index 0 and ends with a
// user message.
func ValidateHistory(history []llm.Message) error {
	if len(history) == 0 {
		return apperrors.NewInvalidHistoryError("history is empty")
	}

	for i, msg := range history {
		switch msg.Role {
		case llmtypes.RoleSystem:
			if i != 0 {
				return apperrors.NewInvalidHistoryError(fmt.Sprintf("system message at index %d", i))
			}
		case llmtypes.RoleUser, llmtypes.RoleAssistant, llmtypes.RoleTool:
		default:
			return apperrors.NewInvalidHistoryError(fmt.Sprintf("unknown role %q at index %d", msg.Role, i))
		}
	}

	if last := history[len(history)-1]; last.Role != llmtypes.RoleUser {
		return apperrors.NewInvalidHistoryError(fmt.Sprintf("last message has role %q, expected \"user\"", last.Role))
	}
	return nil
}
