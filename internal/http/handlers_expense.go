package http

import (
	"net/http"

	"chitieu/internal/core"
	"chitieu/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpList, err)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	NewJSONResponse().Data(items).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	err := p.Parse()
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed request body",
			log.NewFields().WithOperation(log.OpCreate).WithError(err, log.ErrorTypeBadRequest).ToSlice()...)
		BadRequestError("Malformed request body").Write(w)
		return
	}

	var draft core.NewExpense
	if n, ok := p.Number("amount"); ok {
		draft, err = core.ParseNewExpenseNumber(p.Get("title"), n, p.Get("type"))
	} else {
		draft, err = core.ParseNewExpense(p.Get("title"), p.Get("amount"), p.Get("type"))
	}
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}

	e, err := s.service.Create(r.Context(), draft)
	if err != nil {
		writeServiceError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(e).Write(w)
}

func (s *Server) handleToggleExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := s.service.TogglePaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, log.OpToggle, err)
		return
	}
	NewJSONResponse().Data(e).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Message("Deleted").Write(w)
}

// handleSummary returns the same totals the clients derive from the list.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.service.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, log.OpSummary, err)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}
