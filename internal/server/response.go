package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/report"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusOf maps an error code to an HTTP status.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidReport, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidCanvas, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodePackageNotFound, errors.ErrCodeAnalysisNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{
		Code:      string(errors.GetCode(err)),
		Message:   errors.UserMessage(err),
		RequestID: middleware.GetReqID(r.Context()),
	}
	switch {
	case status == http.StatusRequestEntityTooLarge:
		body.Code, body.Message = "PAYLOAD_TOO_LARGE", "report exceeds the upload limit"
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// respond writes v as YAML when the client accepts it and as JSON
// otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if !wantsYAML(r.Header.Get("Accept")) {
		writeJSON(w, status, v)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(status)
	_ = report.Encode(w, v, report.FormatYAML)
}

func wantsYAML(mediaType string) bool {
	return strings.Contains(mediaType, "yaml")
}

// requestFormat picks the report format of a request body: the format
// query parameter, then the Content-Type, then content sniffing.
func requestFormat(r *http.Request) (report.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return report.ParseFormat(f)
	}
	ct := r.Header.Get("Content-Type")
	switch {
	case wantsYAML(ct):
		return report.FormatYAML, nil
	case strings.Contains(ct, "json"):
		return report.FormatJSON, nil
	}
	return "", nil
}
