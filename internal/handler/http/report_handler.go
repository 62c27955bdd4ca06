package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/report"
)

type ReportHandler struct {
	service report.Service
}

func NewReportHandler(service report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) RegisterRoutes(router chi.Router, guard *Guard) {
	router.With(guard.Require(auth.OpViewReports)).Get("/api/reports/summary", h.handleSummary)
}

func (h *ReportHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to build report")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}
