package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
)

// Message length limits
const (
	MaxMessageLength = 8000
	MinMessageLength = 1
)

var onEventRegex = regexp.MustCompile(`(?i)\s+on\w+\s*=`)

// SanitizeMessageContent strips script blocks and inline event handlers and
// enforces the length limits. Text is otherwise stored as typed; rendering
// clients escape it.
func SanitizeMessageContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperrors.Validation("Message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", apperrors.Validation("Message exceeds maximum length")
	}

	content = utils.StripScriptTags(content)
	content = onEventRegex.ReplaceAllString(content, " ")
	content = strings.TrimSpace(content)

	if utf8.RuneCountInString(content) < MinMessageLength {
		return "", apperrors.Validation("Message cannot be empty after sanitization")
	}
	return content, nil
}

// NormalizeMessageType defaults an empty type to text and rejects unknown tags.
func NormalizeMessageType(t models.MessageType) (models.MessageType, error) {
	if t == "" {
		return models.MessageTypeText, nil
	}
	if !t.Valid() {
		return "", apperrors.Validation("Invalid message type")
	}
	return t, nil
}
