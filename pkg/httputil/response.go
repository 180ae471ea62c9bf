package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medboard/bedside-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondCreated sends a 201 with the created resource
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an AppError code onto an HTTP status
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
		switch appErr.Code {
		case errors.ErrNotFound:
			statusCode = http.StatusNotFound
		case errors.ErrValidation:
			statusCode = http.StatusUnprocessableEntity
		case errors.ErrConflict:
			statusCode = http.StatusConflict
		case errors.ErrUnauthorized:
			statusCode = http.StatusUnauthorized
		}
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Message: message,
		},
	})
}
