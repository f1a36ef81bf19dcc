package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/validation"
)

// Envelope codes.
const (
	CodeSuccess            = 0
	CodeServerError        = 500
	CodeLoginError         = 500210
	CodeMobileError        = 500211
	CodeBindError          = 500212
	CodeSessionError       = 500215
	CodeTooManyLoginErrors = 500216
)

const (
	msgSuccess       = "success"
	msgServerError   = "server error"
	msgLoginError    = "username or password incorrect"
	msgBindPrefix    = "parameter validation error: "
	msgSessionError  = "session invalid or expired"
	msgThrottled     = "too many login attempts"
	msgMalformedBody = "malformed request body"
)

// Envelope is the response body of every API route.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Code: CodeSuccess, Message: msgSuccess, Data: data})
}

func fail(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Code: code, Message: message})
}

// loginFailure maps a Login error to its HTTP status and envelope.
func loginFailure(err error) (int, Envelope) {
	var ferr *validation.FieldError
	switch {
	case errors.As(err, &ferr):
		code := CodeBindError
		if ferr.Field == validation.FieldMobile && !strings.HasSuffix(ferr.Message, "must not be empty") {
			code = CodeMobileError
		}
		return http.StatusBadRequest, Envelope{Code: code, Message: msgBindPrefix + ferr.Message}
	case errors.Is(err, ticketAuth.ErrInvalidCredentials):
		// The envelope carries the failure; the status stays 200.
		return http.StatusOK, Envelope{Code: CodeLoginError, Message: msgLoginError}
	case errors.Is(err, ticketAuth.ErrLoginThrottled):
		return http.StatusTooManyRequests, Envelope{Code: CodeTooManyLoginErrors, Message: msgThrottled}
	default:
		return http.StatusInternalServerError, Envelope{Code: CodeServerError, Message: msgServerError}
	}
}
