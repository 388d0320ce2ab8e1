package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every 4xx/5xx API response.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeSite(w, r)
	if !ok {
		return
	}
	a, err := s.assessor.Assess(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, a)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeSite(w, r)
	if !ok {
		return
	}
	rec, err := s.assessor.Recommend(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleSurfaces(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, domain.Surfaces())
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.assessor.Rates())
}

func (s *Server) handleGroundwater(w http.ResponseWriter, r *http.Request) {
	var details []string
	lat, err := parseCoordinate(r, "lat")
	if err != nil {
		details = append(details, err.Error())
	}
	lon, err := parseCoordinate(r, "lon")
	if err != nil {
		details = append(details, err.Error())
	}
	if len(details) > 0 {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid query", Details: details})
		return
	}

	gw, err := s.assessor.Groundwater(r.Context(), lat, lon)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, gw)
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s: required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a number", name)
	}
	return v, nil
}

// decodeSite reads a SiteInput body, writing a 400 and returning false when
// the JSON is malformed or carries unknown fields.
func (s *Server) decodeSite(w http.ResponseWriter, r *http.Request) (domain.SiteInput, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var in domain.SiteInput
	if err := dec.Decode(&in); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{
			Error:   "malformed request body",
			Details: []string{err.Error()},
		})
		return domain.SiteInput{}, false
	}
	return in, true
}

// writeError maps engine errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{
			Error:   domain.ErrInvalidInput.Error(),
			Details: ve.Details(),
		})
		return
	}
	s.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// writeJSON encodes v before committing the status, so a value that cannot
// be encoded yields a 500 instead of a 200 with an empty body.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client went away
}
