package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"instrument-tracker/internal/utils"
)

type errorStruct struct {
	Succeed bool     `json:"success"`
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Code    []string `json:"code,omitempty"`
}

// ErrorHandler renders errors added with AbortWithError as JSON for API
// clients and as the error page for browsers.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		statusCode := GetErrorStatus(err)
		errorInfo := GetErrorInfo(err)

		if statusCode >= 500 {
			slog.Error("Request failed with server error",
				"error", err,
				"status", statusCode,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		} else {
			slog.Warn("Request failed with client error",
				"error", err,
				"status", statusCode,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
		}

		if c.Writer.Written() {
			return
		}

		response := errorStruct{
			Succeed: false,
			Status:  "error",
			Message: errorInfo.Message,
		}
		for _, e := range c.Errors {
			response.Code = append(response.Code, GetErrorInfo(e.Err).StopCodes...)
		}

		if utils.WantsJSON(c) {
			c.AbortWithStatusJSON(statusCode, response)
			return
		}
		HTML(c, statusCode, "error.html.tmpl", gin.H{
			"Title":      "Error",
			"StatusCode": statusCode,
			"Message":    response.Message,
		})
		c.Abort()
	}
}

// AbortWithError adds err to the gin error chain for ErrorHandler and stops
// the handler chain.
func AbortWithError(c *gin.Context, err error) {
	statusCode := GetErrorStatus(err)
	c.Error(err)
	c.Abort()
	// Set the status code so gin knows not to send 200
	c.Status(statusCode)
}

func AbortWithHTTPError(c *gin.Context, statusCode int, err error, message string, stopCodes ...string) {
	httpErr := NewHTTPError(statusCode, err, message, stopCodes...)
	c.Error(httpErr)
	c.Abort()
	c.Status(statusCode)
}
