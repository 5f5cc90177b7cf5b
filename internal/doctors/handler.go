package doctors

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

// Handler exposes doctor search over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the doctor search HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Search handles POST /api/doctors/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Specialty) == "" {
		http.Error(w, `{"error":"specialty is required"}`, http.StatusBadRequest)
		return
	}

	result := h.service.Search(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
