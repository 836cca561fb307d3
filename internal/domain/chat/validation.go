package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation limits for chat input. Account ids and display names come from
// the identity provider, message text straight from the client.
const (
	maxTextLength        = 4096
	maxDisplayNameLength = 128
	maxUserIDLength      = 64
)

// ChatValidator handles participant and message validation for the facade.
// Store operations assume input that passed through it.
type ChatValidator struct{}

// NewChatValidator creates a validator for chat operations
func NewChatValidator() *ChatValidator {
	return &ChatValidator{}
}

// ValidatePair checks a participant pair for a conversation: both ids
// non-empty and distinct. Self-conversations are rejected here, before any
// id derivation.
func (v *ChatValidator) ValidatePair(userA, userB string) error {
	if err := v.ValidateUserID(userA); err != nil {
		return err
	}
	if err := v.ValidateUserID(userB); err != nil {
		return err
	}
	if userA == userB {
		return fmt.Errorf("cannot start a conversation with yourself")
	}
	return nil
}

// ValidateUserID checks a single participant id.
func (v *ChatValidator) ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if utf8.RuneCountInString(userID) > maxUserIDLength {
		return fmt.Errorf("user id exceeds %d characters", maxUserIDLength)
	}
	if strings.Contains(userID, conversationIDSeparator) {
		return fmt.Errorf("user id cannot contain %q", conversationIDSeparator)
	}
	return nil
}

// ValidateText checks message text: non-empty after trimming, within the
// length limit. Returns the trimmed text.
func (v *ChatValidator) ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("message text cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > maxTextLength {
		return "", fmt.Errorf("message text exceeds %d characters", maxTextLength)
	}
	return trimmed, nil
}

// ValidateParticipantInfo bounds the cached display metadata.
func (v *ChatValidator) ValidateParticipantInfo(info ParticipantInfo) error {
	if utf8.RuneCountInString(info.DisplayName) > maxDisplayNameLength {
		return fmt.Errorf("display name exceeds %d characters", maxDisplayNameLength)
	}
	return nil
}
