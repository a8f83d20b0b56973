package adaptor

import (
	"errors"
	"net/http"

	"hostel-booking/internal/usecase"
	"hostel-booking/pkg/utils"

	"go.uber.org/zap"
)

// writeServiceError maps a service error to its HTTP response. Integrity
// faults and unexpected errors are logged in full and the client only gets a
// generic message.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case errors.Is(err, usecase.ErrInvalidStatus),
		errors.Is(err, usecase.ErrInvalidID),
		errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" rejected", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrRoomFull),
		errors.Is(err, usecase.ErrRoomUnderMaintenance),
		errors.Is(err, usecase.ErrDuplicateBooking),
		errors.Is(err, usecase.ErrRoomNumberTaken):
		log.Warn(operation+" failed - conflict", fields...)
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrTransient):
		log.Warn(operation+" failed - retry later", fields...)
		utils.ResponseUnavailable(w, "Service temporarily unavailable, please retry")

	case usecase.IsIntegrityError(err):
		log.Error(operation+" failed - data integrity", fields...)
		utils.ResponseInternalError(w, "Internal server error")

	default:
		log.Error(operation+" failed", fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}
