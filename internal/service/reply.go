package service

import (
	"fmt"

	"github.com/xiaot623/arrifai/internal/domain"
)

// FailureReply renders a failed completion as the apology shown to the user.
func FailureReply(err error, fallbackModel string) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf("Tatizo dogo: %s. Jaribu model nyingine kama '%s'.", msg, fallbackModel)
}

// RenderReply returns the text to show for a completion result.
func (s *Service) RenderReply(result domain.CompletionResult) string {
	if result.OK() {
		return result.Reply
	}
	return FailureReply(result.Err, s.config.FallbackModel)
}
