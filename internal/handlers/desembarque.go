package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/middleware"
	"github.com/snmlog/transferplus/internal/models"
	"github.com/snmlog/transferplus/internal/services/transfer"
)

type pageParams struct {
	page int
	size int
}

func parsePage(req *http.Request) pageParams {
	p := pageParams{page: 1, size: 50}
	if v, err := strconv.Atoi(req.URL.Query().Get("page")); err == nil && v > 0 {
		p.page = v
	}
	if v, err := strconv.Atoi(req.URL.Query().Get("page_size")); err == nil && v > 0 {
		p.size = v
	}
	if p.size > 200 {
		p.size = 200
	}
	return p
}

func (p pageParams) apply(q *gorm.DB) *gorm.DB {
	return q.Offset((p.page - 1) * p.size).Limit(p.size)
}

// likeFilter adds a LIKE clause when the query parameter is present.
func likeFilter(q *gorm.DB, req *http.Request, param, column string) *gorm.DB {
	if v := req.URL.Query().Get(param); v != "" {
		q = q.Where(column+" LIKE ?", "%"+v+"%")
	}
	return q
}

func (rt *Router) listDesembarque(w http.ResponseWriter, req *http.Request) {
	q := rt.db.WithContext(req.Context()).Model(&models.Desembarque{})
	q = likeFilter(q, req, "id", "id")
	q = likeFilter(q, req, "from_vessel", "from_vessel")
	q = likeFilter(q, req, "to_vessel", "to_vessel")
	q = likeFilter(q, req, "spn", "spn")
	q = likeFilter(q, req, "pr_number_tm_master", "pr_number_tm_master")
	q = likeFilter(q, req, "file_reference", "file_reference")
	if status := req.URL.Query().Get("status"); status != "" {
		if status == "Pendente" {
			q = q.Where("transfer_status IS NULL")
		} else {
			q = q.Where("transfer_status = ?", status)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}

	var rows []models.Desembarque
	p := parsePage(req)
	if err := p.apply(q.Order("created DESC")).Find(&rows).Error; err != nil {
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

type confirmDesembarqueRequest struct {
	ID                string     `json:"id" validate:"required"`
	QuantityConfirmed int        `json:"quantity_confirmed" validate:"min=0"`
	ReasonCode        string     `json:"reason_code"`
	Note              string     `json:"note"`
	MinSuggestion     *int       `json:"min_suggestion"`
	MaxSuggestion     *int       `json:"max_suggestion"`
	QuarantineStart   *time.Time `json:"quarantine_start"`
	QuarantineEnd     *time.Time `json:"quarantine_end"`
}

func (rt *Router) confirmDesembarque(w http.ResponseWriter, req *http.Request) {
	var body confirmDesembarqueRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	res, err := rt.transfers.ConfirmDesembarque(req.Context(), lifecycle.DesembarqueConfirmation{
		ID:                body.ID,
		QuantityConfirmed: body.QuantityConfirmed,
		Responsible:       sess.Username,
		ReasonCode:        body.ReasonCode,
		Note:              body.Note,
		MinSuggestion:     body.MinSuggestion,
		MaxSuggestion:     body.MaxSuggestion,
		QuarantineStart:   body.QuarantineStart,
		QuarantineEnd:     body.QuarantineEnd,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type manualInsertRequest struct {
	FromVessel              string           `json:"from_vessel" validate:"required"`
	ToVessel                string           `json:"to_vessel" validate:"required"`
	FromDepartment          string           `json:"from_department"`
	ToDepartment            string           `json:"to_department"`
	SPN                     string           `json:"spn" validate:"required"`
	ItemDescription         string           `json:"item_description" validate:"required"`
	OriginAllocatedPosition string           `json:"origin_allocated_position"`
	OraclePRNumber          string           `json:"oracle_pr_number"`
	PRNumberTMMaster        string           `json:"pr_number_tm_master" validate:"required"`
	QuantityToTransfer      int              `json:"quantity_to_transfer" validate:"min=0"`
	TotalAmountUSD          *decimal.Decimal `json:"total_amount_usd"`
}

func (rt *Router) insertManualRecord(w http.ResponseWriter, req *http.Request) {
	var body manualInsertRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := rt.validate.Struct(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := middleware.SessionFrom(req)
	rec, err := rt.transfers.InsertManualRecord(req.Context(), transfer.ManualInsert{
		FromVessel:              body.FromVessel,
		ToVessel:                body.ToVessel,
		FromDepartment:          body.FromDepartment,
		ToDepartment:            body.ToDepartment,
		SPN:                     body.SPN,
		ItemDescription:         body.ItemDescription,
		OriginAllocatedPosition: body.OriginAllocatedPosition,
		OraclePRNumber:          body.OraclePRNumber,
		PRNumberTMMaster:        body.PRNumberTMMaster,
		QuantityToTransfer:      body.QuantityToTransfer,
		TotalAmountUSD:          body.TotalAmountUSD,
		AuthorID:                sess.Username,
	})
	if err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}
