package handler

import (
	"errors"
	"net/http"

	"Go_FileStore/internal/logging"
	"Go_FileStore/internal/service"
	"Go_FileStore/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMergeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := "internal error"
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		msg = svcErr.Message
	}
	if status == http.StatusInternalServerError {
		logging.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	utils.Fail(c, status, msg)
}

func badRequest(c *gin.Context, err error) {
	utils.Fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
}
