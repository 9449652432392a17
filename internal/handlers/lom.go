package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
)

// listPendingLOM returns verified records that still have no LOM code.
func (rt *Router) listPendingLOM(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).Model(&models.Conferencia{}).
		Where("(lom IS NULL OR lom = '') AND status_final = ?", models.StatusSentToEmbarque)
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

type assignLOMRequest struct {
	ID   string `json:"id" validate:"required"`
	LOM  string `json:"lom" validate:"required"`
	Note string `json:"note"`
}

func (rt *Router) assignLOM(w http.ResponseWriter, req *http.Request) {
	var body assignLOMRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	res, err := rt.transfers.AssignLOM(req.Context(), lifecycle.LOMAssignment{
		ID:          body.ID,
		LOM:         body.LOM,
		Note:        body.Note,
		Responsible: sess.Username,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
