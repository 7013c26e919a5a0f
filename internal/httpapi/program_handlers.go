package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bountyhub.org/internal/audit"
	"bountyhub.org/internal/bounty"
)

type createProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Scope       string `json:"scope" validate:"required"`
	RewardMin   int64  `json:"reward_min" validate:"required"`
	RewardMax   int64  `json:"reward_max" validate:"required"`
}

// updateProgramRequest carries a partial update; absent fields keep their
// stored values. company_id is not accepted here: ownership never changes.
type updateProgramRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Scope       *string `json:"scope"`
	RewardMin   *int64  `json:"reward_min"`
	RewardMax   *int64  `json:"reward_max"`
}

func (a *API) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := a.svc.ListPrograms(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (a *API) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	program, err := a.svc.GetProgram(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, bounty.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Program not found")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (a *API) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	var req createProgramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if msg, ok := a.validateRequest(req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	program, err := a.svc.CreateProgram(r.Context(), user, bounty.ProgramInput{
		Name:        req.Name,
		Description: req.Description,
		Scope:       req.Scope,
		RewardMin:   req.RewardMin,
		RewardMax:   req.RewardMax,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "program.create", map[string]any{"program_id": program.ID})
	writeJSON(w, http.StatusCreated, program)
}

func (a *API) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	var req updateProgramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	program, err := a.svc.UpdateProgram(r.Context(), user, chi.URLParam(r, "id"), bounty.ProgramUpdate{
		Name:        req.Name,
		Description: req.Description,
		Scope:       req.Scope,
		RewardMin:   req.RewardMin,
		RewardMax:   req.RewardMax,
	})
	if err != nil {
		switch {
		case errors.Is(err, bounty.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Program not found")
		case errors.Is(err, bounty.ErrForbidden):
			writeError(w, r, http.StatusForbidden, "You are not authorized to update this program")
		default:
			respondServiceError(w, r, err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "program.update", map[string]any{"program_id": program.ID})
	writeJSON(w, http.StatusOK, program)
}

func (a *API) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "No token provided, authorization denied")
		return
	}
	id := chi.URLParam(r, "id")

	if err := a.svc.DeleteProgram(r.Context(), user, id); err != nil {
		switch {
		case errors.Is(err, bounty.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Program not found")
		case errors.Is(err, bounty.ErrForbidden):
			writeError(w, r, http.StatusForbidden, "You are not authorized to delete this program")
		default:
			respondServiceError(w, r, err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "program.delete", map[string]any{"program_id": id})
	w.WriteHeader(http.StatusNoContent)
}
