package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/orchestrator/core/orcherr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorMessage  string `json:"errorMessage"`
	ErrorCode     int    `json:"errorCode"`
	ExceptionType string `json:"exceptionType"`
	Origin        string `json:"origin,omitempty"`
}

func (ctrl *Controller) fail(c *gin.Context, origin string, err error) {
	var oe *orcherr.Error
	resp := ErrorResponse{
		ErrorMessage:  "Internal server error",
		ErrorCode:     http.StatusInternalServerError,
		ExceptionType: orcherr.KindInternal.String(),
		Origin:        origin,
	}
	if errors.As(err, &oe) {
		resp.Origin = oe.Origin
		resp.ExceptionType = oe.Kind.String()
		switch oe.Kind {
		case orcherr.KindInvalidParameter:
			resp.ErrorCode = http.StatusBadRequest
			resp.ErrorMessage = oe.Message
		case orcherr.KindExternal:
			resp.ErrorCode = http.StatusBadGateway
			resp.ErrorMessage = oe.Message
		default:
			resp.ExceptionType = orcherr.KindInternal.String()
			resp.ErrorMessage = oe.Message
		}
	}
	if resp.ErrorCode >= http.StatusInternalServerError {
		ctrl.Log.Errorf("[%s] %v", resp.Origin, err)
	} else {
		ctrl.Log.Debugf("[%s] rejected: %v", resp.Origin, err)
	}
	c.AbortWithStatusJSON(resp.ErrorCode, resp)
}

func (ctrl *Controller) badRequest(c *gin.Context, origin, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		ErrorMessage:  msg,
		ErrorCode:     http.StatusBadRequest,
		ExceptionType: orcherr.KindInvalidParameter.String(),
		Origin:        origin,
	})
}

func (ctrl *Controller) notFound(c *gin.Context, origin, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
		ErrorMessage:  msg,
		ErrorCode:     http.StatusNotFound,
		ExceptionType: "DATA_NOT_FOUND",
		Origin:        origin,
	})
}
