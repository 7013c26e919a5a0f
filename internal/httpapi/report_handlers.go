package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bountyhub.org/internal/audit"
	"bountyhub.org/internal/bounty"
)

type createReportRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ProgramID   string `json:"program_id" validate:"required"`
	Severity    string `json:"severity" validate:"omitempty"`
}

type updateReportStatusRequest struct {
	Status   *string `json:"status"`
	Severity *string `json:"severity"`
}

func (a *API) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := a.validateRequest(req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	report, err := a.svc.CreateReport(r.Context(), user, bounty.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		ProgramID:   req.ProgramID,
		Severity:    req.Severity,
	})
	if err != nil {
		if errors.Is(err, bounty.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Program not found")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "report.create", map[string]any{
		"report_id":  report.ID,
		"program_id": report.ProgramID,
	})
	writeJSON(w, http.StatusCreated, report)
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}

	report, err := a.svc.GetReport(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, bounty.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Report not found")
		case errors.Is(err, bounty.ErrForbidden):
			writeError(w, r, http.StatusForbidden, "You are not authorized to view this report")
		default:
			respondServiceError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleListProgramReports(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}

	reports, err := a.svc.ListProgramReports(r.Context(), user, chi.URLParam(r, "programID"))
	if err != nil {
		switch {
		case errors.Is(err, bounty.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Program not found")
		case errors.Is(err, bounty.ErrForbidden):
			writeError(w, r, http.StatusForbidden, "You are not authorized to view these reports")
		default:
			respondServiceError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	var req updateReportStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == nil && req.Severity == nil {
		writeError(w, r, http.StatusBadRequest, "Status or severity must be provided")
		return
	}

	var upd bounty.ReportStatusUpdate
	if req.Status != nil {
		status := bounty.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		upd.Status = &status
	}
	if req.Severity != nil {
		severity := bounty.Severity(strings.ToUpper(strings.TrimSpace(*req.Severity)))
		upd.Severity = &severity
	}

	report, err := a.svc.UpdateReportStatus(r.Context(), user, chi.URLParam(r, "id"), upd)
	if err != nil {
		switch {
		case errors.Is(err, bounty.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Report not found")
		case errors.Is(err, bounty.ErrForbidden):
			writeError(w, r, http.StatusForbidden, "You are not authorized to update this report")
		default:
			respondServiceError(w, r, err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "report.status_update", map[string]any{
		"report_id": report.ID,
		"status":    string(report.Status),
		"severity":  string(report.Severity),
	})
	writeJSON(w, http.StatusOK, report)
}
