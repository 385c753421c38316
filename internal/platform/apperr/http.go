package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInsufficientStock:
		return http.StatusConflict
	case KindTxFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// HTTPErrorHandler returns an echo error handler that renders
// application errors in the standard envelope. Unknown errors become
// opaque 500s so internals never leak to clients.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ae *Error
		if errors.As(err, &ae) {
			status := statusFor(ae.Kind)
			if status >= 500 {
				logger.Error().Err(err).
					Str("path", c.Request().URL.Path).
					Msg("request failed")
			}
			_ = c.JSON(status, errorEnvelope{
				Success: false,
				Error:   errorBody{Kind: ae.Kind, Message: ae.Message, Detail: ae.Detail},
			})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			_ = c.JSON(he.Code, errorEnvelope{
				Success: false,
				Error:   errorBody{Kind: "http", Message: msg},
			})
			return
		}

		logger.Error().Err(err).
			Str("path", c.Request().URL.Path).
			Msg("unhandled error")
		_ = c.JSON(http.StatusInternalServerError, errorEnvelope{
			Success: false,
			Error:   errorBody{Kind: "internal", Message: "internal server error"},
		})
	}
}
