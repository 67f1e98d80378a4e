package rest

import (
	"io"
	"net/http"
)

const maxImportSize = 20 << 20 // 20 MiB

// importFile extracts the uploaded spreadsheet from a multipart form.
func importFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		ErrorBadRequest(w, "expected multipart form with a file field")
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		ErrorBadRequest(w, "file field is required")
		return nil, false
	}
	return file, true
}

func (h *Handler) importPartners(w http.ResponseWriter, r *http.Request) {
	file, ok := importFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	imported, skipped, err := h.importer.ImportPartners(r.Context(), file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "partners imported", map[string]interface{}{
		"imported": imported,
		"skipped":  skipped,
	})
}

func (h *Handler) importLoans(w http.ResponseWriter, r *http.Request) {
	file, ok := importFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	imported, skipped, err := h.importer.ImportLoans(r.Context(), file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	Success(w, "loans imported", map[string]interface{}{
		"imported": imported,
		"skipped":  skipped,
	})
}
