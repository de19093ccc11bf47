package api

import (
	"errors"
	"net/http"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/utils"
)

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsConfiguration(err):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, message string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("API", message+": "+err.Error())
	}
	utils.WriteJSON(w, status, utils.ErrorResponse(message, err.Error()))
}
