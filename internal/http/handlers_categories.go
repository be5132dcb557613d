package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"butce/internal/log"
	"butce/internal/screens"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(screens.LoadCategories(r.Context(), s.deps(r))).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(MsgBadRequest).Write(w)
		return
	}
	c, err := s.ledger.AddCategory(r.Context(), p.GetName(ParamName), p.Get(ParamType))
	if err != nil {
		s.writeFailure(w, r, err, log.OpCreate, MsgGenericError)
		return
	}
	Created(MsgCategoryAdded, c).Write(w)
}

// handleCategoryStream sends the category index as server-sent events: one
// "categories" event on connect and one per change, until the client leaves
// or the server shuts down. Updates the client has not read yet are replaced
// by newer ones.
func (s *Server) handleCategoryStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	rc := http.NewResponseController(w)

	updates := make(chan screens.CategoriesView, 1)
	m, err := screens.OpenCategoryManager(ctx, s.deps(r), func(v screens.CategoriesView) {
		select {
		case updates <- v:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- v
		}
	})
	if err != nil {
		s.writeFailure(w, r, err, log.OpSubscribe, MsgGenericError)
		return
	}
	defer m.Close()

	// Streams outlive the server's read timeout.
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.WarnContext(ctx, "Streaming not supported", log.FieldError, err)
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case v := <-updates:
			data, err := json.Marshal(v)
			if err != nil {
				logger.ErrorContext(ctx, "Encode category event failed", log.FieldError, err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: categories\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
