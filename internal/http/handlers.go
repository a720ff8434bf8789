package http

import (
	"errors"
	"io"
	"net/http"

	"trainerworkload/internal/core"
	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
)

const maxEventBytes = 64 << 10

// handleTrainerWorkload serves the monthly workload view of one trainer.
func (s *Server) handleTrainerWorkload(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	view, err := s.workload.GetTrainerView(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleTrainer is the plain lookup. Absence is not an error.
func (s *Server) handleTrainer(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.workload.GetTrainer(r.Context(), r.PathValue("username"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	raw, err := ingest.Decode(body)
	if err == nil {
		err = s.ingester.Handle(r.Context(), raw)
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	fields := applog.NewFields().WithOperation(applog.OpIngest)
	fields[applog.FieldUsername] = raw.Username
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		fields[applog.FieldSubject] = claims.Subject
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Training event accepted", fields.ToSlice()...)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidTrainerData), errors.Is(err, core.ErrMalformedEvent):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrTrainerNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
