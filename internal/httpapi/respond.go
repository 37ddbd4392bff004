package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/joelkehle/mark3/internal/apperr"
	"github.com/joelkehle/mark3/internal/registration"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err as {"error": message, "code": code}. Form
// validation failures also list every problem under "errors".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	payload := map[string]any{
		"error": ae.Message,
		"code":  ae.Code,
	}
	var fe *registration.FormError
	if errors.As(err, &fe) {
		payload["errors"] = fe.Problems
	}
	if ae.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
	}
	if ae.Status >= 500 {
		s.logger.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("code", ae.Code),
			zap.Error(err),
		)
	}
	writeJSON(w, ae.Status, payload)
}

// decodeJSON reads one JSON object from the (size limited) body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.PayloadTooLarge("request body is too large")
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
