package lifecycle

import (
	"strings"
	"time"

	"github.com/snmlog/transferplus/internal/models"
)

// The Apply* functions below are the whole of the stage-transition logic.
// They take the rows a transition may touch (nil when the row is absent),
// mutate them in place, and report which stages must be persisted. They never
// talk to a database; the transfer service loads the rows, calls one of
// these inside a transaction, and writes back whatever Result names.

// DesembarqueConfirmation carries the input of confirm_desembarque.
type DesembarqueConfirmation struct {
	ID                string
	QuantityConfirmed int
	Responsible       string
	ReasonCode        string
	Note              string
	MinSuggestion     *int
	MaxSuggestion     *int
	QuarantineStart   *time.Time
	QuarantineEnd     *time.Time
}

// ApplyDesembarqueConfirmation confirms a record out of the Desembarque stage.
// A zero confirmed quantity finalizes the origin record and deliberately never
// creates a Conferencia row; a nonzero quantity derives the status from the
// reason code and upserts the Conferencia mirror.
//
// rec must be non-nil. conf is the existing Conferencia row or nil; when the
// transition needs one and conf is nil, the returned row must be inserted.
func ApplyDesembarqueConfirmation(rec *models.Desembarque, conf *models.Conferencia, in DesembarqueConfirmation, now time.Time) (*models.Conferencia, Result, error) {
	res := Result{ID: in.ID}
	if rec == nil {
		return nil, res, &NotFoundError{Stage: StageDesembarque, ID: in.ID}
	}
	if in.QuantityConfirmed < 0 {
		return nil, res, &ValidationError{Field: "quantity_confirmed", Reason: "must not be negative"}
	}

	qty := in.QuantityConfirmed
	rec.QuantityConfirmed = &qty
	rec.Responsible = optional(in.Responsible)
	rec.ReasonCode = optional(in.ReasonCode)
	rec.Justification = optional(in.Note)
	rec.MinSuggestion = in.MinSuggestion
	rec.MaxSuggestion = in.MaxSuggestion
	rec.Modified = &now

	if qty == 0 {
		status := models.StatusFinalizado
		rec.TransferStatus = &status
		res.FinalStatus = status
		res.wrote(StageDesembarque)
		return nil, res, nil
	}

	status := DeriveDesembarqueStatus(in.ReasonCode)
	rec.TransferStatus = &status

	if conf == nil {
		conf = &models.Conferencia{ID: rec.ID}
	}
	conf.TransferItem = rec.TransferItem
	conf.StatusFinal = status
	conf.Observation = optional(in.Note)
	conf.Responsible = optional(in.Responsible)
	conf.DesembarqueQuantity = qty
	conf.QuarantineStart = in.QuarantineStart
	conf.QuarantineEnd = in.QuarantineEnd

	res.FinalStatus = status
	res.wrote(StageDesembarque)
	res.wrote(StageConferencia)
	return conf, res, nil
}

// ConferenciaConfirmation carries the input of confirm_conferencia.
type ConferenciaConfirmation struct {
	ID                  string
	ConferenciaQuantity *int
	EmbarqueQuantity    *int
	StatusFinal         string
	Responsible         string
	Note                string
	QuarantineStart     *time.Time
	LOM                 string
	ToDepartment        string // optional destination override
}

// ApplyConferenciaConfirmation promotes a verified record into the Embarque
// staging table and synchronizes the mirrored subset back into Conferencia.
// Re-entering quarantine always clears any stale quarantine-end marker.
func ApplyConferenciaConfirmation(conf *models.Conferencia, emb *models.Embarque, in ConferenciaConfirmation) (*models.Embarque, Result, error) {
	res := Result{ID: in.ID}
	if conf == nil {
		return nil, res, &NotFoundError{Stage: StageConferencia, ID: in.ID}
	}
	if strings.TrimSpace(in.StatusFinal) == "" {
		return nil, res, &ValidationError{Field: "status_final", Reason: "must not be blank"}
	}

	if in.ToDepartment != "" {
		conf.ToDepartment = in.ToDepartment
	}

	if emb == nil {
		emb = &models.Embarque{ID: conf.ID}
	}
	emb.TransferItem = conf.TransferItem
	emb.ConferenciaQuantity = in.ConferenciaQuantity
	emb.QuantityConfirmed = in.EmbarqueQuantity
	emb.StatusFinal = in.StatusFinal
	emb.Observation = optional(in.Note)
	emb.Responsible = optional(in.Responsible)
	emb.QuarantineStart = in.QuarantineStart
	emb.LOM = optional(in.LOM)

	conf.QuantityConfirmed = in.ConferenciaQuantity
	conf.StatusFinal = in.StatusFinal
	conf.Observation = optional(in.Note)
	conf.Responsible = optional(in.Responsible)
	conf.QuarantineStart = in.QuarantineStart
	conf.LOM = optional(in.LOM)
	if in.StatusFinal == models.StatusQuarentena {
		conf.QuarantineEnd = nil
	}

	res.FinalStatus = in.StatusFinal
	res.wrote(StageConferencia)
	res.wrote(StageEmbarque)
	return emb, res, nil
}

// QuarantineUpdate carries the input of update_quarantine.
type QuarantineUpdate struct {
	ID            string
	NewStatus     string
	Responsible   string
	Note          string
	QuarantineEnd *time.Time
}

// ApplyQuarantineUpdate releases or re-routes a quarantined record. Moving to
// "Enviado para Embarque" upserts the Embarque row with that status fixed,
// whatever status string the caller supplied downstream.
func ApplyQuarantineUpdate(conf *models.Conferencia, emb *models.Embarque, in QuarantineUpdate) (*models.Embarque, Result, error) {
	res := Result{ID: in.ID}
	if conf == nil {
		return nil, res, &NotFoundError{Stage: StageConferencia, ID: in.ID}
	}
	if strings.TrimSpace(in.NewStatus) == "" {
		return nil, res, &ValidationError{Field: "status_final", Reason: "must not be blank"}
	}

	conf.StatusFinal = in.NewStatus
	conf.QuarantineResponsible = optional(in.Responsible)
	conf.QuarantineObservation = optional(in.Note)
	conf.QuarantineEnd = in.QuarantineEnd

	res.FinalStatus = in.NewStatus
	res.wrote(StageConferencia)

	if in.NewStatus != models.StatusSentToEmbarque {
		return nil, res, nil
	}

	if emb == nil {
		emb = &models.Embarque{ID: conf.ID}
	}
	emb.TransferItem = conf.TransferItem
	emb.ConferenciaQuantity = conf.QuantityConfirmed
	emb.StatusFinal = models.StatusSentToEmbarque
	emb.Observation = optional(in.Note)
	emb.Responsible = optional(in.Responsible)
	emb.QuarantineStart = conf.QuarantineStart
	emb.QuarantineEnd = in.QuarantineEnd
	emb.LOM = conf.LOM

	res.wrote(StageEmbarque)
	return emb, res, nil
}

// LOMAssignment carries the input of assign_lom.
type LOMAssignment struct {
	ID          string
	LOM         string
	Note        string
	Responsible string
}

// ApplyLOMAssignment tags a record with its logistics/operations code. The
// code is mandatory; assignment mirrors into an existing Embarque row but
// never creates one, since LOM alone does not promote a record.
func ApplyLOMAssignment(conf *models.Conferencia, emb *models.Embarque, in LOMAssignment) (Result, error) {
	res := Result{ID: in.ID}
	lom := strings.TrimSpace(in.LOM)
	if lom == "" {
		return res, &ValidationError{Field: "lom", Reason: "must not be blank"}
	}
	if conf == nil {
		return res, &NotFoundError{Stage: StageConferencia, ID: in.ID}
	}

	conf.LOM = &lom
	conf.LOMObservation = optional(in.Note)
	conf.LOMResponsible = optional(in.Responsible)

	res.FinalStatus = conf.StatusFinal
	res.wrote(StageConferencia)

	if emb != nil {
		emb.TransferItem = conf.TransferItem
		emb.ConferenciaQuantity = conf.QuantityConfirmed
		emb.StatusFinal = models.StatusSentToEmbarque
		emb.Responsible = optional(in.Responsible)
		emb.QuarantineStart = conf.QuarantineStart
		emb.QuarantineEnd = conf.QuarantineEnd
		emb.LOM = &lom
		emb.LOMObservation = optional(in.Note)
		res.FinalStatus = models.StatusSentToEmbarque
		res.wrote(StageEmbarque)
	}
	return res, nil
}

// EmbarqueConfirmation carries the input of confirm_embarque.
type EmbarqueConfirmation struct {
	ID              string
	StatusFinal     string
	Note            string
	Responsible     string
	LOM             string
	QuarantineStart *time.Time
}

// ApplyEmbarqueConfirmation updates the terminal fields of the Embarque row.
// Diverting back to quarantine pushes a quarantine-start timestamp into
// Conferencia (defaulting to now) and clears its quarantine end.
func ApplyEmbarqueConfirmation(emb *models.Embarque, conf *models.Conferencia, in EmbarqueConfirmation, now time.Time) (Result, error) {
	res := Result{ID: in.ID}
	if emb == nil {
		return res, &NotFoundError{Stage: StageEmbarque, ID: in.ID}
	}
	if strings.TrimSpace(in.StatusFinal) == "" {
		return res, &ValidationError{Field: "status_final", Reason: "must not be blank"}
	}

	emb.StatusFinal = in.StatusFinal
	emb.Observation = optional(in.Note)
	emb.Responsible = optional(in.Responsible)
	emb.LOM = optional(in.LOM)

	res.FinalStatus = in.StatusFinal
	res.wrote(StageEmbarque)

	if in.StatusFinal == models.StatusQuarentena {
		if conf == nil {
			return res, &NotFoundError{Stage: StageConferencia, ID: in.ID}
		}
		start := in.QuarantineStart
		if start == nil {
			start = &now
		}
		conf.QuarantineStart = start
		conf.StatusFinal = models.StatusQuarentena
		conf.QuarantineEnd = nil
		res.wrote(StageConferencia)
	}
	return res, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
