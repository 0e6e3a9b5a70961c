package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/store"
)

// createProposal evaluates the request and opens a proposal on the result.
func (s *server) createProposal(w http.ResponseWriter, r *http.Request) {
	var req model.ViabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.Engine.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.Proposals.Create(r.Context(), report)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "proposal": p, "report": report})
}

func (s *server) listProposals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProposalFilter{Status: model.ProposalStatus(q.Get("status"))}
	if filter.Status != "" && !validStatus(filter.Status) {
		writeError(w, r, model.NewValidationError("status", "unknown status %q", filter.Status))
		return
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		writeError(w, r, err)
		return
	}

	ps, err := s.Proposals.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ps == nil {
		ps = []model.FinancingProposal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "proposals": ps})
}

func (s *server) getProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Get(r.Context(), chi.URLParam(r, "id"))
	s.proposalResponse(w, r, p, err)
}

func (s *server) approveProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Approve(r.Context(), chi.URLParam(r, "id"))
	s.proposalResponse(w, r, p, err)
}

func (s *server) contractProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Contract(r.Context(), chi.URLParam(r, "id"))
	s.proposalResponse(w, r, p, err)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (s *server) cancelProposal(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	p, err := s.Proposals.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	s.proposalResponse(w, r, p, err)
}

func (s *server) proposalResponse(w http.ResponseWriter, r *http.Request, p *model.FinancingProposal, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "proposal": p})
}

func validStatus(s model.ProposalStatus) bool {
	switch s {
	case model.ProposalPending, model.ProposalApproved, model.ProposalContracted, model.ProposalCancelled:
		return true
	}
	return false
}

func intParam(v, field string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(field, "must be a non-negative integer, got %q", v)
	}
	return n, nil
}
