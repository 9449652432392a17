package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
	"github.com/snmlog/transferplus/internal/printer"
)

func (rt *Router) listEmbarque(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).Model(&models.Embarque{})
	q = likeFilter(q, req, "id", "id")
	q = likeFilter(q, req, "from_vessel", "from_vessel")
	q = likeFilter(q, req, "to_vessel", "to_vessel")
	q = likeFilter(q, req, "spn", "spn")
	q = likeFilter(q, req, "lom", "lom")
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status_final = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	var rows []models.Embarque
	p := parsePage(req)
	if err := p.apply(q.Order("updated_at DESC")).Find(&rows).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data":      rows,
		"total":     total,
		"page":      p.page,
		"page_size": p.size,
	})
}

type confirmEmbarqueRequest struct {
	ID              string     `json:"id" validate:"required"`
	StatusFinal     string     `json:"status_final" validate:"required"`
	Note            string     `json:"note"`
	LOM             string     `json:"lom"`
	QuarantineStart *time.Time `json:"quarantine_start"`
}

func (rt *Router) confirmEmbarque(w http.ResponseWriter, req *http.Request) {
	var body confirmEmbarqueRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	res, err := rt.transfers.ConfirmEmbarque(req.Context(), lifecycle.EmbarqueConfirmation{
		ID:              body.ID,
		StatusFinal:     body.StatusFinal,
		Note:            body.Note,
		Responsible:     sess.Username,
		LOM:             body.LOM,
		QuarantineStart: body.QuarantineStart,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

const maxImageBytes = 10 << 20

// uploadEmbarqueImage attaches a photo to a shipment record.
func (rt *Router) uploadEmbarqueImage(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	req.Body = http.MaxBytesReader(w, req.Body, maxImageBytes)
	if err := req.ParseMultipartForm(maxImageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := req.FormFile("imagem")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file sent, expected field imagem")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read file")
		return
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}

	now := time.Now().UTC()
	res := rt.db.WithContext(req.Context()).Model(&models.Embarque{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"image_data":        data,
			"image_mime":        mime,
			"image_uploaded_at": now,
		})
	if res.Error != nil {
		rt.respondLifecycleError(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		rt.respondLifecycleError(w, &lifecycle.NotFoundError{Stage: lifecycle.StageEmbarque, ID: id})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "image stored", "id": id})
}

// viewEmbarqueImage streams the stored photo back.
func (rt *Router) viewEmbarqueImage(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	var rec models.Embarque
	err := rt.db.WithContext(req.Context()).
		Select("id", "image_data", "image_mime").
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rt.respondLifecycleError(w, &lifecycle.NotFoundError{Stage: lifecycle.StageEmbarque, ID: id})
		return
	}
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	if len(rec.ImageData) == 0 {
		respondError(w, http.StatusNotFound, "record has no image")
		return
	}

	mime := "application/octet-stream"
	if rec.ImageMIME != nil {
		mime = *rec.ImageMIME
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	w.Write(rec.ImageData)
}

// embarqueManifest renders a PDF manifest of the records awaiting shipment,
// optionally narrowed to one destination vessel.
func (rt *Router) embarqueManifest(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).
		Where("status_final = ?", models.StatusSentToEmbarque).
		Order("to_vessel, id")
	vessel := req.URL.Query().Get("to_vessel")
	if vessel != "" {
		q = q.Where("to_vessel = ?", vessel)
	}

	var rows []models.Embarque
	if err := q.Find(&rows).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	sess := middleware.SessionFrom(req)
	pdf, err := printer.GenerateManifestPDF(printer.Manifest{
		Vessel:      vessel,
		GeneratedBy: sess.Username,
		GeneratedAt: time.Now().UTC(),
		Records:     rows,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=manifesto_embarque.pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
