package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/snmlog/transferplus/internal/models"
)

type stageStats struct {
	Desembarque struct {
		Pending   int64 `json:"pending"`
		Confirmed int64 `json:"confirmed"`
		Finalized int64 `json:"finalized"`
	} `json:"desembarque"`
	Conferencia struct {
		Total          int64 `json:"total"`
		InQuarantine   int64 `json:"in_quarantine"`
		SentToEmbarque int64 `json:"sent_to_embarque"`
		MissingLOM     int64 `json:"missing_lom"`
	} `json:"conferencia"`
	Embarque struct {
		Pending   int64 `json:"pending"`
		Finalized int64 `json:"finalized"`
	} `json:"embarque"`
}

func (rt *Router) dashboardStats(w http.ResponseWriter, req *http.Request) {
	db := rt.db.WithContext(req.Context())
	var stats stageStats

	type countQuery struct {
		dest *int64
		run  func(dest *int64) error
	}
	queries := []countQuery{
		{&stats.Desembarque.Pending, func(d *int64) error {
			return db.Model(&models.Desembarque{}).Where("transfer_status IS NULL").Count(d).Error
		}},
		{&stats.Desembarque.Confirmed, func(d *int64) error {
			return db.Model(&models.Desembarque{}).
				Where("transfer_status IS NOT NULL AND transfer_status <> ?", models.StatusFinalizado).Count(d).Error
		}},
		{&stats.Desembarque.Finalized, func(d *int64) error {
			return db.Model(&models.Desembarque{}).Where("transfer_status = ?", models.StatusFinalizado).Count(d).Error
		}},
		{&stats.Conferencia.Total, func(d *int64) error {
			return db.Model(&models.Conferencia{}).Count(d).Error
		}},
		{&stats.Conferencia.InQuarantine, func(d *int64) error {
			return db.Model(&models.Conferencia{}).Where("status_final = ?", models.StatusQuarentena).Count(d).Error
		}},
		{&stats.Conferencia.SentToEmbarque, func(d *int64) error {
			return db.Model(&models.Conferencia{}).Where("status_final = ?", models.StatusSentToEmbarque).Count(d).Error
		}},
		{&stats.Conferencia.MissingLOM, func(d *int64) error {
			return db.Model(&models.Conferencia{}).Where("lom IS NULL OR lom = ''").Count(d).Error
		}},
		{&stats.Embarque.Pending, func(d *int64) error {
			return db.Model(&models.Embarque{}).Where("status_final <> ?", models.StatusEmbarqueFinalizado).Count(d).Error
		}},
		{&stats.Embarque.Finalized, func(d *int64) error {
			return db.Model(&models.Embarque{}).Where("status_final = ?", models.StatusEmbarqueFinalizado).Count(d).Error
		}},
	}
	for _, q := range queries {
		if err := q.run(q.dest); err != nil {
			rt.respondLifecycleError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, stats)
}

type activity struct {
	Type        string    `json:"type"`
	RecordID    string    `json:"record_id"`
	Status      string    `json:"status"`
	Responsible string    `json:"responsible,omitempty"`
	At          time.Time `json:"at"`
}

// recentActivities merges the latest touches across the three stages into
// one feed, newest first.
func (rt *Router) recentActivities(w http.ResponseWriter, req *http.Request) {
	const perStage = 10
	db := rt.db.WithContext(req.Context())
	var feed []activity

	var desembarques []models.Desembarque
	if err := db.Where("modified IS NOT NULL").Order("modified DESC").Limit(perStage).Find(&desembarques).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	for _, d := range desembarques {
		a := activity{Type: "desembarque", RecordID: d.ID, At: *d.Modified}
		if d.TransferStatus != nil {
			a.Status = *d.TransferStatus
		}
		if d.Responsible != nil {
			a.Responsible = *d.Responsible
		}
		feed = append(feed, a)
	}

	var conferencias []models.Conferencia
	if err := db.Order("updated_at DESC").Limit(perStage).Find(&conferencias).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	for _, c := range conferencias {
		a := activity{Type: "conferencia", RecordID: c.ID, Status: c.StatusFinal, At: c.UpdatedAt}
		if c.Responsible != nil {
			a.Responsible = *c.Responsible
		}
		feed = append(feed, a)
	}

	var embarques []models.Embarque
	if err := db.Order("updated_at DESC").Limit(perStage).Find(&embarques).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	for _, e := range embarques {
		a := activity{Type: "embarque", RecordID: e.ID, Status: e.StatusFinal, At: e.UpdatedAt}
		if e.Responsible != nil {
			a.Responsible = *e.Responsible
		}
		feed = append(feed, a)
	}

	sort.Slice(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > perStage {
		feed = feed[:perStage]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"activities": feed})
}
