package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/go-chi/chi/v5"
)

type runRequest struct {
	Inputs nodes.Inputs `json:"inputs"`
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	list := s.nodes.List()
	infos := make([]nodes.Info, len(list))
	for i, n := range list {
		infos[i] = n.Info()
	}
	writeJSON(w, map[string]any{"nodes": infos})
}

func (s *Server) decodeRun(w http.ResponseWriter, r *http.Request) (runRequest, bool) {
	var req runRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.Inputs == nil {
		req.Inputs = nodes.Inputs{}
	}
	return req, true
}

// handleRunNode runs a node. The fingerprint is taken over the inputs as
// sent, so image inputs hash by their encoded form.
func (s *Server) handleRunNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	n, err := s.nodes.Get(name)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	req, ok := s.decodeRun(w, r)
	if !ok {
		return
	}

	fingerprint, err := s.nodes.Fingerprint(r.Context(), name, req.Inputs)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	in, err := decodeImages(n, req.Inputs)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	out, err := s.nodes.Run(r.Context(), name, in)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	encoded, err := encodeOutputs(out)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	writeJSON(w, map[string]any{
		"node":        name,
		"outputs":     encoded,
		"fingerprint": fingerprint,
	})
}

func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, ok := s.decodeRun(w, r)
	if !ok {
		return
	}
	fingerprint, err := s.nodes.Fingerprint(r.Context(), name, req.Inputs)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, map[string]string{"fingerprint": fingerprint})
}
