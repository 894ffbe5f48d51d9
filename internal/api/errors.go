package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnodes/internal/chunker"
	"github.com/dgallion1/docnodes/internal/inputdir"
	"github.com/dgallion1/docnodes/internal/nodes"
	"github.com/dgallion1/docnodes/internal/pages"
	"github.com/dgallion1/docnodes/internal/parser"
	"github.com/dgallion1/docnodes/internal/raster"
	"github.com/dgallion1/docnodes/internal/selector"
)

// badInput are the errors caused by what the caller sent.
var badInput = []error{
	nodes.ErrMissingInput,
	nodes.ErrInvalidInput,
	selector.ErrInvalidIndexFormat,
	selector.ErrIndexOutOfRange,
	pages.ErrInvalidPageList,
	chunker.ErrInvalidChunkSize,
	chunker.ErrUnknownMethod,
	parser.ErrUnsupportedFileType,
	raster.ErrInvalidDPI,
	raster.ErrPageMissing,
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, nodes.ErrUnknownNode), errors.Is(err, inputdir.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inputdir.ErrOutsideBase):
		return http.StatusForbidden
	}
	for _, target := range badInput {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code. Server-side failures are logged and
// their detail withheld.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	code := statusFor(err)
	if code >= 500 {
		log.Error("request failed", "error", err)
		jsonError(w, "internal error", code)
		return
	}
	jsonError(w, err.Error(), code)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
