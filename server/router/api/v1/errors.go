package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	rerrors "github.com/hrygo/chronorec/internal/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpStatus maps an error code to its HTTP status.
func httpStatus(code rerrors.ErrorCode) int {
	switch code {
	case rerrors.ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case rerrors.ErrCodeUnsupportedCulture:
		return http.StatusNotFound
	case rerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func errorResponse(err error) ErrorResponse {
	code := rerrors.GetCodeFromError(err, rerrors.ErrCodeInternal)
	msg := "internal error"
	var re *rerrors.RecognizerError
	if errors.As(err, &re) && code != rerrors.ErrCodeInternal {
		msg = re.Message
	}
	return ErrorResponse{Code: string(code), Message: msg}
}

func (s *APIV1Service) writeError(c echo.Context, err error) error {
	body := errorResponse(err)
	status := httpStatus(rerrors.ErrorCode(body.Code))
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return c.JSON(status, body)
}

// validationMessage names the first failing field of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "invalid " + fe.Namespace() + ": failed " + fe.Tag()
	}
	return "invalid request"
}
