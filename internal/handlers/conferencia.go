package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
)

func (rt *Router) listConferencia(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).Model(&models.Conferencia{})
	q = likeFilter(q, req, "id", "id")
	q = likeFilter(q, req, "from_vessel", "from_vessel")
	q = likeFilter(q, req, "to_vessel", "to_vessel")
	q = likeFilter(q, req, "spn", "spn")
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status_final = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	var rows []models.Conferencia
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

type confirmConferenciaRequest struct {
	ID                  string     `json:"id" validate:"required"`
	ConferenciaQuantity *int       `json:"conferencia_quantity"`
	EmbarqueQuantity    *int       `json:"embarque_quantity"`
	StatusFinal         string     `json:"status_final" validate:"required"`
	Note                string     `json:"note"`
	QuarantineStart     *time.Time `json:"quarantine_start"`
	LOM                 string     `json:"lom"`
	ToDepartment        string     `json:"to_department"`
}

func (rt *Router) confirmConferencia(w http.ResponseWriter, req *http.Request) {
	var body confirmConferenciaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	res, err := rt.transfers.ConfirmConferencia(req.Context(), lifecycle.ConferenciaConfirmation{
		ID:                  body.ID,
		ConferenciaQuantity: body.ConferenciaQuantity,
		EmbarqueQuantity:    body.EmbarqueQuantity,
		StatusFinal:         body.StatusFinal,
		Responsible:         sess.Username,
		Note:                body.Note,
		QuarantineStart:     body.QuarantineStart,
		LOM:                 body.LOM,
		ToDepartment:        body.ToDepartment,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
