package web

import (
	"net/http"

	"github.com/JonMunkholm/records/internal/logging"
	"github.com/JonMunkholm/records/internal/record"
)

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.FindAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(recs))
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.store.FindByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(rec))
}

// handleCreateEntity stores a new record. Any id in the body is ignored.
func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	rec, err := s.decodeRecord(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec.ID = nil

	saved, err := s.store.Save(r.Context(), rec)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("record created", "id", *saved.ID)
	writeJSON(w, http.StatusCreated, toDTO(saved))
}

// handleUpdateEntity replaces an existing record, attributes included.
func (s *Server) handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.decodeRecord(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if _, err := s.store.FindByID(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec.ID = record.IDPtr(id)

	saved, err := s.store.Save(r.Context(), rec)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("record updated", "id", id)
	writeJSON(w, http.StatusOK, toDTO(saved))
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.store.DeleteByID(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("record deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeRecord decodes and validates a submitted record.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (record.Record, error) {
	var dto EntityDTO
	if err := decodeJSON(w, r, &dto); err != nil {
		return record.Record{}, err
	}

	rec, err := dto.toRecord()
	if err != nil {
		return record.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}
