package web

import (
	"net/http"

	"github.com/JonMunkholm/trailpack/internal/gearimport"
)

type batchesResponse struct {
	Batches []gearimport.ImportBatch `json:"batches"`
}

// handleListBatches lists the user's import batches, newest first.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.Batches(r.Context(), userID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if batches == nil {
		batches = []gearimport.ImportBatch{}
	}
	writeJSON(w, r, http.StatusOK, batchesResponse{Batches: batches})
}

// handleRevert removes a batch and every item it created.
func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	batchID, err := parseBatchID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.Revert(r.Context(), userID(r), batchID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Imports gearimport.LimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Imports: s.service.LimiterStatus(),
	})
}
