package http

import (
	"net/http"

	"butce/internal/core"
	"butce/internal/log"
	"butce/internal/screens"
)

func addedMessage(kind core.EntryKind) string {
	if kind == core.Income {
		return MsgIncomeAdded
	}
	return MsgExpenseAdded
}

func updatedMessage(kind core.EntryKind) string {
	if kind == core.Income {
		return MsgIncomeUpdated
	}
	return MsgExpenseUpdated
}

func deletedMessage(kind core.EntryKind) string {
	if kind == core.Income {
		return MsgIncomeDeleted
	}
	return MsgExpenseDeleted
}

func entryView(e core.Entry) screens.EntryView {
	return screens.EntryView{Entry: e, DateLabel: core.FormatDate(e.Date, nil)}
}

func (s *Server) handleEntryList(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := stripControl(r.URL.Query().Get(ParamFilter))
		NewJSONResponse().Body(screens.LoadEntryList(r.Context(), s.deps(r), kind, filter)).Write(w)
	}
}

func (s *Server) handleEntryForm(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Body(screens.LoadEntryForm(r.Context(), s.deps(r), kind)).Write(w)
	}
}

func (s *Server) handleEntryEdit(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := screens.LoadEntryEdit(r.Context(), s.deps(r), kind, r.PathValue("id"))
		if err != nil {
			s.writeFailure(w, r, err, log.OpRead, MsgGenericError)
			return
		}
		NewJSONResponse().Body(v).Write(w)
	}
}

func (s *Server) handleCreateEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := s.parseEntry(w, r)
		if !ok {
			return
		}
		e, err := s.ledger.AddEntry(r.Context(), kind, in)
		if err != nil {
			s.writeFailure(w, r, err, log.OpCreate, MsgGenericError)
			return
		}
		Created(addedMessage(kind), entryView(e)).Write(w)
	}
}

func (s *Server) handleUpdateEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := s.parseEntry(w, r)
		if !ok {
			return
		}
		e, err := s.ledger.UpdateEntry(r.Context(), kind, r.PathValue("id"), in)
		if err != nil {
			s.writeFailure(w, r, err, log.OpUpdate, MsgUpdateFailed)
			return
		}
		OK(updatedMessage(kind), entryView(e)).Write(w)
	}
}

func (s *Server) handleDeleteEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ledger.DeleteEntry(r.Context(), kind, r.PathValue("id")); err != nil {
			s.writeFailure(w, r, err, log.OpDelete, MsgDeleteFailed)
			return
		}
		OK(deletedMessage(kind), nil).Write(w)
	}
}

// parseEntry writes the error response itself and reports whether to go on.
func (s *Server) parseEntry(w http.ResponseWriter, r *http.Request) (core.EntryInput, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(MsgBadRequest).Write(w)
		return core.EntryInput{}, false
	}
	in, err := p.EntryInput()
	if err != nil {
		FromError(err, MsgGenericError).Write(w)
		return core.EntryInput{}, false
	}
	return in, true
}
