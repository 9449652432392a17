package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/snmlog/transferplus/internal/middleware"
)

// Uploads above this size are rejected before parsing.
const maxUploadBytes = 32 << 20

// uploadSpreadsheet ingests a transfer spreadsheet. Admin only.
func (rt *Router) uploadSpreadsheet(w http.ResponseWriter, req *http.Request) {
	if !rt.requireAdmin(w, req) {
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := req.FormFile("arquivo_excel")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file sent, expected field arquivo_excel")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		respondError(w, http.StatusBadRequest, "file must be .xlsx")
		return
	}

	sess := middleware.SessionFrom(req)
	summary, err := rt.imports.Import(req.Context(), header.Filename, file, sess.Username)
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// downloadDuplicates serves a duplicates report generated by a previous
// upload. Admin only.
func (rt *Router) downloadDuplicates(w http.ResponseWriter, req *http.Request) {
	if !rt.requireAdmin(w, req) {
		return
	}

	name := mux.Vars(req)["filename"]
	path, err := rt.imports.DuplicatesReportPath(name)
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeFile(w, req, path)
}
