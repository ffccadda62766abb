package service

import (
	"net/http"

	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// Stable failure kinds returned to callers. Validation failures carry no
// side effects; saga failures wrap the failing step separately.
const (
	CodeChannelNotFound    = "CHANNEL_NOT_FOUND"
	CodeChannelExists      = "CHANNEL_ALREADY_CONFIGURED"
	CodeFieldNotFound      = "FIELD_NOT_FOUND"
	CodeFieldLimitExceeded = "FIELD_LIMIT_EXCEEDED"
	CodeDuplicateField     = "DUPLICATE_FIELD"
	CodeInvalidFieldKind   = "INVALID_FIELD_KIND"
	CodeInvalidLimit       = "INVALID_LIMIT"
	CodeTicketNotFound     = "TICKET_NOT_FOUND"
	CodeTicketLimitReached = "TICKET_LIMIT_REACHED"
)

func errChannelNotFound() error {
	return apperrors.NewDomainError(CodeChannelNotFound, "ticket channel not found", http.StatusNotFound, nil)
}

func errChannelExists(channelID string) error {
	return apperrors.NewDomainError(CodeChannelExists, "channel is already configured for tickets", http.StatusConflict,
		map[string]any{"channel_id": channelID})
}

func errFieldNotFound(slug string) error {
	return apperrors.NewDomainError(CodeFieldNotFound, "field not found", http.StatusNotFound,
		map[string]any{"slug": slug})
}

func errFieldLimitExceeded() error {
	return apperrors.NewDomainError(CodeFieldLimitExceeded, "channel already has the maximum number of fields", http.StatusConflict,
		map[string]any{"max": MaxFieldsPerChannel})
}

func errDuplicateField(slug string) error {
	return apperrors.NewDomainError(CodeDuplicateField, "a field with this name already exists", http.StatusConflict,
		map[string]any{"slug": slug})
}

func errInvalidFieldKind(kind string) error {
	return apperrors.NewDomainError(CodeInvalidFieldKind, "unsupported field kind", http.StatusBadRequest,
		map[string]any{"kind": kind})
}

func errInvalidLimit(limit int) error {
	return apperrors.NewDomainError(CodeInvalidLimit, "limit must be a positive integer", http.StatusBadRequest,
		map[string]any{"limit": limit})
}

func errTicketNotFound() error {
	return apperrors.NewDomainError(CodeTicketNotFound, "ticket not found", http.StatusNotFound, nil)
}

func errTicketLimitReached(limit int) error {
	return apperrors.NewDomainError(CodeTicketLimitReached, "open ticket limit reached for this channel", http.StatusConflict,
		map[string]any{"limit": limit})
}
