package messaging

import "context"

// Service is the interface for localized user-facing copy
type Service interface {
	// GetViolationMessage returns the shaming message for a sequence
	// violation, worded per violation kind
	GetViolationMessage(ctx context.Context, input *GetViolationMessageInput) (*GetViolationMessageOutput, error)

	// GetConfirmCopy returns the strings for the disable-counting
	// confirmation flow
	GetConfirmCopy(ctx context.Context, input *GetConfirmCopyInput) (*GetConfirmCopyOutput, error)

	// GetStatsCopy returns the static strings of the stats embeds
	GetStatsCopy(ctx context.Context, input *GetStatsCopyInput) (*GetStatsCopyOutput, error)
}
