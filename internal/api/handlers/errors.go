package handlers

import (
	"errors"
	"net/http"

	"github.com/futhaxball/backend/internal/match"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrRoomNotFound), errors.Is(err, match.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, match.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, match.ErrRoomFull), errors.Is(err, match.ErrMatchFinished),
		errors.Is(err, match.ErrPlayerExists):
		return http.StatusConflict
	case errors.Is(err, match.ErrRoomLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, match.ErrInvalidTeam), errors.Is(err, match.ErrInvalidSettings):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
