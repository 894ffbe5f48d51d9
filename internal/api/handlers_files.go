package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/metrics"
	"github.com/dgallion1/docnodes/internal/parser"
)

// handleUpload stores the multipart field "document" in the input directory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("document")
	if err != nil {
		jsonError(w, "document is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	name, err := s.store.Save(r.Context(), filename, bytes.NewReader(data))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	metrics.UploadedBytes.Add(float64(len(data)))
	s.log.Info("document uploaded", "name", name, "bytes", len(data))

	writeJSON(w, map[string]string{"name": name})
}

// handleGetPath lists a directory of the input dir. A directory that does
// not exist lists as empty.
func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("path") {
		jsonError(w, "missing 'path' parameter", http.StatusBadRequest)
		return
	}

	entries, err := s.store.List(r.Context(), q.Get("path"), inputdir.ParseExtensions(q.Get("extensions")))
	if errors.Is(err, inputdir.ErrOutsideBase) {
		writeError(w, s.log, err)
		return
	}
	if err != nil {
		s.log.Debug("listing failed", "path", q.Get("path"), "error", err)
		entries = nil
	}
	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, entries)
}

// handleListDocuments lists the loadable files at the top of the input
// directory.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Documents(r.Context(), parser.Extensions())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if docs == nil {
		docs = []string{}
	}
	writeJSON(w, map[string]any{"documents": docs, "extensions": parser.Extensions()})
}
