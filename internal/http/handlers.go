package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/render"
	"tracker/internal/services"
)

type indexData struct {
	View       render.View
	Categories []categoryOption
	Gradient   template.CSS
	Error      string
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			requestLogger(r).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	if s.templates == nil {
		requestLogger(r).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view := s.View()
	data := indexData{
		View:       view,
		Categories: categoryOptions(),
		Gradient:   chartGradient(view.Chart),
		Error:      errMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		requestLogger(r).ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err,
			"template", "index.html")
	}
}

// handleCreateTransaction records a transaction submitted by the form.
// Invalid input answers 422 with the page and the error; success redirects
// back to the page.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, errResp := formInput(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	tx, err := s.service.Record(r.Context(), in)
	switch {
	case services.IsInvalidInput(err):
		if r.Header.Get("HX-Request") == "true" {
			UnprocessableEntityError(err.Error()).Write(w)
			return
		}
		s.renderIndex(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, ledger.ErrPersist):
		requestLogger(r).ErrorContext(r.Context(), "Transaction recorded but not persisted",
			applog.FieldTransactionID, tx.ID,
			applog.FieldError, err)
		InternalServerError("The transaction was recorded but could not be saved").Write(w)
		return
	case err != nil:
		requestLogger(r).ErrorContext(r.Context(), "Record transaction failed", applog.FieldError, err)
		InternalServerError("Could not record the transaction").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerTransactionCreated(tx.ID).
		Redirect("/").
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.service.Remove(r.Context(), id)
	switch {
	case errors.Is(err, ledger.ErrPersist):
		requestLogger(r).ErrorContext(r.Context(), "Transaction deleted but not persisted",
			applog.FieldTransactionID, id,
			applog.FieldError, err)
		InternalServerError("The transaction was deleted but the change could not be saved").Write(w)
		return
	case err != nil:
		requestLogger(r).ErrorContext(r.Context(), "Delete transaction failed",
			applog.FieldTransactionID, id,
			applog.FieldError, err)
		InternalServerError("Could not delete the transaction").Write(w)
		return
	}
	if !removed {
		NotFoundError("Transaction not found").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerTransactionDeleted(id).
		Redirect("/").
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.View())
}

// handleListTransactions answers with the history rows, most recent first.
func (s *Server) handleListTransactions(w http.ResponseWriter, _ *http.Request) {
	rows := s.View().History
	if rows == nil {
		rows = []render.HistoryRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleAPICreateTransaction accepts JSON or form bodies and answers with the
// recorded transaction.
func (s *Server) handleAPICreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.service.Record(r.Context(), p.TransactionInput())
	switch {
	case services.IsInvalidInput(err):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, ledger.ErrPersist):
		requestLogger(r).ErrorContext(r.Context(), "Transaction recorded but not persisted",
			applog.FieldTransactionID, tx.ID,
			applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "transaction recorded but not saved")
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "could not record transaction")
		return
	}

	w.Header().Set("Location", "/api/transactions/"+tx.ID)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleAPIDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.service.Remove(r.Context(), id)
	if err != nil {
		requestLogger(r).ErrorContext(r.Context(), "Delete transaction failed",
			applog.FieldTransactionID, id,
			applog.FieldError, err)
		writeJSONError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
