package v1

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskledger/internal/domain"
)

// errorMessages are the operation-specific details used when mapping a
// service error to a response.
type errorMessages struct {
	forbidden string
	failure   string
}

// toHTTPError maps domain sentinels to huma status errors. Anything
// unrecognized is logged and reported as 500 with the cause attached.
func toHTTPError(err error, msgs errorMessages) error {
	switch {
	case errors.Is(err, domain.ErrMissingTitle):
		return huma.Error400BadRequest("Title is required")
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(validationDetail(err))
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden(msgs.forbidden)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("Task not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("Task was modified by another request; reload it and retry")
	default:
		log.Error().Err(err).Msg(msgs.failure)
		return huma.Error500InternalServerError(msgs.failure, err)
	}
}

// validationDetail strips call-site prefixes so only the reason remains.
func validationDetail(err error) string {
	msg := err.Error()
	if _, reason, ok := strings.Cut(msg, domain.ErrValidation.Error()+": "); ok {
		return reason
	}
	return "invalid request"
}
