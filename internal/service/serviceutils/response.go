package serviceutils

import (
	"github.com/labstack/echo/v4"

	"github.com/locvowork/bikestore_reports/internal/logger"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ResponseError logs err against the request context and replies with status.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := Response{Message: message}
	if err != nil {
		resp.Error = err.Error()
		logger.ErrorLogErr(c.Request().Context(), err, "%s %s: %s", c.Request().Method, c.Path(), message)
	}
	return c.JSON(status, resp)
}
