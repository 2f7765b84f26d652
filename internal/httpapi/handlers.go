package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rackhouse/poolhall-backend/internal/store"
)

// ListHalls serves the venue catalog the dashboard shows on launch.
func ListHalls(s *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		halls, err := s.ListHalls(r.Context())
		if err != nil {
			log.Error("list halls", zap.Error(err))
			http.Error(w, "failed to list halls", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, halls)
	}
}

type registerHallRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Tables   int    `json:"tables"`
}

// RegisterHall creates a hall with a numbered set of tables. Admin only;
// the role check happens in the route middleware.
func RegisterHall(s *store.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerHallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.Tables < 1 || req.Tables > 100 {
			http.Error(w, "name required, tables must be 1-100", http.StatusBadRequest)
			return
		}
		h, err := s.CreateHall(r.Context(), req.Name, req.Location, req.Tables)
		if err != nil {
			log.Error("create hall", zap.Error(err))
			http.Error(w, "failed to create hall", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, h)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
