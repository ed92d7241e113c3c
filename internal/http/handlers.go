package http

import (
	"context"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/view"
)

type createResponse struct {
	Transaction view.DisplayRow `json:"transaction"`
	Snapshot    view.Snapshot   `json:"snapshot"`
}

type deleteResponse struct {
	ID       int64         `json:"id"`
	Removed  bool          `json:"removed"`
	Snapshot view.Snapshot `json:"snapshot"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	InUse      []string `json:"in_use"`
}

func (s *Server) snapshot(r *http.Request) view.Snapshot {
	return s.svc.Snapshot(ParseFilter(r.URL.Query()))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.snapshot(r)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.snapshot(r).Summary).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.snapshot(r).Rows).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.snapshot(r).Chart).Write(w)
}

// handleCategories lists the configured taxonomy plus the categories
// already present in the ledger.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	resp := categoriesResponse{Categories: []string{}, InUse: s.svc.Categories()}
	if resp.InUse == nil {
		resp.InUse = []string{}
	}
	if s.taxonomy != nil {
		cats, err := s.taxonomy.List(r.Context())
		if err != nil {
			requestLogger(r).ErrorContext(r.Context(), "Taxonomy list error", log.FieldError, err)
		} else if cats != nil {
			resp.Categories = cats
		}
	}
	NewJSONResponse().Data(resp).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	sub, err := NewRequestBodyParser(r).Submission()
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return
		}
		logger.WarnContext(r.Context(), "Malformed request body", log.FieldError, err)
		BadRequestError("malformed request body").Write(w)
		return
	}

	tx, err := s.svc.Create(r.Context(), sub)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			ValidationErrorResponse(err).Write(w)
			return
		}
		s.writeServiceError(w, r, "Create transaction failed", err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+formatID(tx.ID)).
		Data(createResponse{Transaction: rowFor(tx), Snapshot: s.snapshot(r)}).
		Write(w)
}

// handleDeleteTransaction is idempotent: removing an unknown id answers 200
// with removed=false.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	removed, err := s.svc.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "Delete transaction failed", err)
		return
	}

	NewJSONResponse().
		Data(deleteResponse{ID: id, Removed: removed, Snapshot: s.snapshot(r)}).
		Write(w)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		requestLogger(r).WarnContext(r.Context(), msg, log.FieldError, err)
		ServiceUnavailableError("request cancelled").Write(w)
		return
	}
	requestLogger(r).ErrorContext(r.Context(), msg, log.FieldError, err)
	InternalServerError("could not save the ledger").Write(w)
}
