package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/docnodes/internal/pages"
	"github.com/dgallion1/docnodes/internal/raster"
)

// handlePDFInfo reports the page count of a PDF in the input directory.
func (s *Server) handlePDFInfo(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("path")
	if name == "" {
		jsonError(w, "missing 'path' parameter", http.StatusBadRequest)
		return
	}
	data, err := s.store.Read(r.Context(), name)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	n, err := raster.CountPages(bytes.NewReader(data))
	if err != nil {
		jsonError(w, "not a readable pdf: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"name": name, "pages": n})
}

type trimRequest struct {
	Path   string `json:"path"`
	Pages  string `json:"pages"`
	SaveAs string `json:"save_as,omitempty"`
}

// handlePDFTrim builds a PDF from the listed pages. With save_as the result
// is stored in the input directory, otherwise it is returned as the body.
func (s *Server) handlePDFTrim(w http.ResponseWriter, r *http.Request) {
	var req trimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	data, err := s.store.Read(r.Context(), req.Path)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	count, err := raster.CountPages(bytes.NewReader(data))
	if err != nil {
		jsonError(w, "not a readable pdf: "+err.Error(), http.StatusBadRequest)
		return
	}
	selected, err := pages.ParseList(req.Pages, count)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	var buf bytes.Buffer
	if err := raster.Trim(bytes.NewReader(data), &buf, selected); err != nil {
		writeError(w, s.log, err)
		return
	}

	if req.SaveAs != "" {
		name := sanitizeFilename(req.SaveAs)
		if _, err := s.store.Save(r.Context(), name, &buf); err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, map[string]any{"name": name, "pages": len(selected)})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trimmed.pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
