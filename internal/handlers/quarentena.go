package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
)

// listQuarentena returns the records currently held in quarantine.
func (rt *Router) listQuarentena(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).Model(&models.Conferencia{}).
		Where("status_final = ? AND quarantine_start IS NOT NULL", models.StatusQuarentena)
	q = likeFilter(q, req, "id", "id")
	q = likeFilter(q, req, "from_vessel", "from_vessel")
	q = likeFilter(q, req, "spn", "spn")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	var rows []models.Conferencia
	p := parsePage(req)
	if err := p.apply(q.Order("quarantine_start DESC")).Find(&rows).Error; err != nil {
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

type quarantineUpdateRequest struct {
	ID            string     `json:"id" validate:"required"`
	NewStatus     string     `json:"new_status" validate:"required"`
	Note          string     `json:"note"`
	QuarantineEnd *time.Time `json:"quarantine_end"`
}

func (rt *Router) updateQuarantine(w http.ResponseWriter, req *http.Request) {
	var body quarantineUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	res, err := rt.transfers.UpdateQuarantine(req.Context(), lifecycle.QuarantineUpdate{
		ID:            body.ID,
		NewStatus:     body.NewStatus,
		Responsible:   sess.Username,
		Note:          body.Note,
		QuarantineEnd: body.QuarantineEnd,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
