package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/recognizer"
	"github.com/hrygo/chronorec/server/timezone"
)

// RecognizeRequest asks for the date/time expressions of Text.
type RecognizeRequest struct {
	Text string `json:"text" validate:"required"`
	// Culture defaults to the profile default culture.
	Culture string `json:"culture" validate:"omitempty,min=2,max=16"`
	// Reference is RFC 3339 or a local "2006-01-02 15:04:05"; empty means now.
	Reference string `json:"reference"`
	// Timezone is an IANA name; it defaults to the profile default timezone.
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

// RecognizeResponse holds the results of one text.
type RecognizeResponse struct {
	Culture   string                 `json:"culture"`
	Reference string                 `json:"reference"`
	Results   []datetime.ModelResult `json:"results"`
}

// BatchRecognizeRequest groups several texts.
type BatchRecognizeRequest struct {
	Requests []RecognizeRequest `json:"requests" validate:"required,min=1,dive"`
}

// BatchRecognizeItem is the outcome of one batch entry: either a response
// or an error.
type BatchRecognizeItem struct {
	*RecognizeResponse
	Error *ErrorResponse `json:"error,omitempty"`
}

// BatchRecognizeResponse keeps the order of the request.
type BatchRecognizeResponse struct {
	Responses []BatchRecognizeItem `json:"responses"`
}

// CulturesResponse lists the served cultures.
type CulturesResponse struct {
	Cultures       []string `json:"cultures"`
	DefaultCulture string   `json:"defaultCulture"`
	Fallback       bool     `json:"fallback"`
}

// Recognize parses one text.
// POST /api/v1/datetime:recognize
func (s *APIV1Service) Recognize(c echo.Context) error {
	var req RecognizeRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, rerrors.InvalidArgument("malformed request body"))
	}
	if err := s.validate.Struct(&req); err != nil {
		return s.writeError(c, rerrors.Wrap(err, rerrors.ErrCodeInvalidArgument, validationMessage(err)))
	}

	culture, ref, err := s.prepare(&req)
	if err != nil {
		return s.writeError(c, err)
	}
	ctx := c.Request().Context()
	if reqCtx, ok := observability.FromContext(ctx); ok {
		reqCtx.Culture = culture
	}

	results, err := s.Recognizer.Parse(ctx, req.Text, culture, ref)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, newRecognizeResponse(culture, ref, results))
}

// BatchRecognize parses several texts. Entries fail independently.
// POST /api/v1/datetime:batchRecognize
func (s *APIV1Service) BatchRecognize(c echo.Context) error {
	var req BatchRecognizeRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, rerrors.InvalidArgument("malformed request body"))
	}
	if err := s.validate.Struct(&req); err != nil {
		return s.writeError(c, rerrors.Wrap(err, rerrors.ErrCodeInvalidArgument, validationMessage(err)))
	}
	if len(req.Requests) > s.Profile.MaxBatchSize {
		return s.writeError(c, rerrors.InvalidArgument("too many requests in batch").
			WithContext("max", s.Profile.MaxBatchSize))
	}

	ctx := c.Request().Context()
	if err := s.batchSemaphore.Acquire(ctx, 1); err != nil {
		return s.writeError(c, rerrors.Wrap(err, rerrors.ErrCodeInternal, "batch cancelled"))
	}
	defer s.batchSemaphore.Release(1)

	items := make([]BatchRecognizeItem, len(req.Requests))
	batch := make([]recognizer.BatchRequest, 0, len(req.Requests))
	index := make([]int, 0, len(req.Requests))
	for i := range req.Requests {
		culture, ref, err := s.prepare(&req.Requests[i])
		if err != nil {
			body := errorResponse(err)
			items[i].Error = &body
			continue
		}
		batch = append(batch, recognizer.BatchRequest{Text: req.Requests[i].Text, Culture: culture, Reference: ref})
		index = append(index, i)
	}

	results, err := s.Recognizer.ParseBatch(ctx, batch)
	if err != nil {
		return s.writeError(c, rerrors.Wrap(err, rerrors.ErrCodeInternal, "batch cancelled"))
	}
	for j, r := range results {
		i := index[j]
		if r.Err != nil {
			body := errorResponse(r.Err)
			items[i].Error = &body
			continue
		}
		resp := newRecognizeResponse(batch[j].Culture, batch[j].Reference, r.Results)
		items[i].RecognizeResponse = &resp
	}
	return c.JSON(http.StatusOK, BatchRecognizeResponse{Responses: items})
}

// ListCultures returns the loaded cultures.
// GET /api/v1/cultures
func (s *APIV1Service) ListCultures(c echo.Context) error {
	reg := s.Recognizer.Registry()
	return c.JSON(http.StatusOK, CulturesResponse{
		Cultures:       reg.Cultures(),
		DefaultCulture: reg.DefaultCulture(),
		Fallback:       s.Profile.CultureFallback,
	})
}

// prepare resolves the culture and reference instant of a request.
func (s *APIV1Service) prepare(req *RecognizeRequest) (string, time.Time, error) {
	culture := strings.TrimSpace(req.Culture)
	if culture == "" {
		culture = s.Profile.DefaultCulture
	}
	ref, err := timezone.ResolveReference(req.Reference, req.Timezone, s.defaultLocation, s.now())
	if err != nil {
		return "", time.Time{}, rerrors.Wrap(err, rerrors.ErrCodeInvalidArgument, "invalid reference or timezone")
	}
	return culture, ref, nil
}

func newRecognizeResponse(culture string, ref time.Time, results []datetime.ModelResult) RecognizeResponse {
	if results == nil {
		results = []datetime.ModelResult{}
	}
	return RecognizeResponse{
		Culture:   culture,
		Reference: ref.Format(time.RFC3339),
		Results:   results,
	}
}
