package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func envelope(code string, err error) ErrorEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	}
}

func RespondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, envelope(code, err))
}

// AbortError writes the error envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, envelope(code, err))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondStatus(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
