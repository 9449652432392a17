package transfer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/snmlog/transferplus/internal/database"
	"github.com/snmlog/transferplus/internal/lifecycle"
	"github.com/snmlog/transferplus/internal/models"
)

// Event describes a completed lifecycle mutation, used to feed the
// activity stream.
type Event struct {
	Action      string    `json:"action"`
	RecordID    string    `json:"record_id"`
	FinalStatus string    `json:"final_status"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
}

// Service applies transfer lifecycle transitions. Every operation runs in a
// single database transaction: the stage rows are loaded, the transition
// rules run in memory, and only the stages the rules reported as touched are
// written back.
type Service struct {
	db      *database.DB
	log     *logrus.Logger
	now     func() time.Time
	onEvent func(Event)
}

// NewService creates a new transfer service
func NewService(db *database.DB, log *logrus.Logger) *Service {
	return &Service{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OnEvent registers a sink invoked after each committed mutation.
func (s *Service) OnEvent(fn func(Event)) {
	s.onEvent = fn
}

func (s *Service) emit(action, id, status, actor string) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(Event{
		Action:      action,
		RecordID:    id,
		FinalStatus: status,
		Actor:       actor,
		At:          s.now(),
	})
}

func loadDesembarque(tx *gorm.DB, id string) (*models.Desembarque, error) {
	var rec models.Desembarque
	err := tx.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &lifecycle.PersistenceError{Op: "load desembarque", Err: err}
	}
	return &rec, nil
}

func loadConferencia(tx *gorm.DB, id string) (*models.Conferencia, error) {
	var rec models.Conferencia
	err := tx.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &lifecycle.PersistenceError{Op: "load conferencia", Err: err}
	}
	return &rec, nil
}

func loadEmbarque(tx *gorm.DB, id string) (*models.Embarque, error) {
	var rec models.Embarque
	err := tx.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &lifecycle.PersistenceError{Op: "load embarque", Err: err}
	}
	return &rec, nil
}

// upsert writes a stage row with Create or Save depending on whether the row
// existed when the transaction loaded it.
func upsert(tx *gorm.DB, existed bool, value interface{}, op string) error {
	var err error
	if existed {
		err = tx.Save(value).Error
	} else {
		err = tx.Create(value).Error
	}
	if err != nil {
		return &lifecycle.PersistenceError{Op: op, Err: err}
	}
	return nil
}

// ConfirmDesembarque runs the disembark confirmation for one record.
func (s *Service) ConfirmDesembarque(ctx context.Context, in lifecycle.DesembarqueConfirmation) (*lifecycle.Result, error) {
	var res lifecycle.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := loadDesembarque(tx, in.ID)
		if err != nil {
			return err
		}
		conf, err := loadConferencia(tx, in.ID)
		if err != nil {
			return err
		}
		confExisted := conf != nil

		newConf, r, err := lifecycle.ApplyDesembarqueConfirmation(rec, conf, in, s.now())
		if err != nil {
			return err
		}
		res = r

		for _, stage := range r.StagesWritten {
			switch stage {
			case lifecycle.StageDesembarque:
				if err := upsert(tx, true, rec, "save desembarque"); err != nil {
					return err
				}
			case lifecycle.StageConferencia:
				if err := upsert(tx, confExisted, newConf, "save conferencia"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("desembarque_confirmed", res.ID, res.FinalStatus, in.Responsible)
	return &res, nil
}

// ConfirmConferencia runs the verification confirmation, promoting the record
// into the Embarque staging table.
func (s *Service) ConfirmConferencia(ctx context.Context, in lifecycle.ConferenciaConfirmation) (*lifecycle.Result, error) {
	var res lifecycle.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conf, err := loadConferencia(tx, in.ID)
		if err != nil {
			return err
		}
		emb, err := loadEmbarque(tx, in.ID)
		if err != nil {
			return err
		}
		embExisted := emb != nil

		newEmb, r, err := lifecycle.ApplyConferenciaConfirmation(conf, emb, in)
		if err != nil {
			return err
		}
		res = r

		for _, stage := range r.StagesWritten {
			switch stage {
			case lifecycle.StageConferencia:
				if err := upsert(tx, true, conf, "save conferencia"); err != nil {
					return err
				}
			case lifecycle.StageEmbarque:
				if err := upsert(tx, embExisted, newEmb, "save embarque"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("conferencia_confirmed", res.ID, res.FinalStatus, in.Responsible)
	return &res, nil
}

// UpdateQuarantine releases or re-routes a quarantined record.
func (s *Service) UpdateQuarantine(ctx context.Context, in lifecycle.QuarantineUpdate) (*lifecycle.Result, error) {
	var res lifecycle.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conf, err := loadConferencia(tx, in.ID)
		if err != nil {
			return err
		}
		emb, err := loadEmbarque(tx, in.ID)
		if err != nil {
			return err
		}
		embExisted := emb != nil

		newEmb, r, err := lifecycle.ApplyQuarantineUpdate(conf, emb, in)
		if err != nil {
			return err
		}
		res = r

		for _, stage := range r.StagesWritten {
			switch stage {
			case lifecycle.StageConferencia:
				if err := upsert(tx, true, conf, "save conferencia"); err != nil {
					return err
				}
			case lifecycle.StageEmbarque:
				if err := upsert(tx, embExisted, newEmb, "save embarque"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("quarantine_updated", res.ID, res.FinalStatus, in.Responsible)
	return &res, nil
}

// AssignLOM tags a record with its logistics code.
func (s *Service) AssignLOM(ctx context.Context, in lifecycle.LOMAssignment) (*lifecycle.Result, error) {
	var res lifecycle.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conf, err := loadConferencia(tx, in.ID)
		if err != nil {
			return err
		}
		emb, err := loadEmbarque(tx, in.ID)
		if err != nil {
			return err
		}

		r, err := lifecycle.ApplyLOMAssignment(conf, emb, in)
		if err != nil {
			return err
		}
		res = r

		for _, stage := range r.StagesWritten {
			switch stage {
			case lifecycle.StageConferencia:
				if err := upsert(tx, true, conf, "save conferencia"); err != nil {
					return err
				}
			case lifecycle.StageEmbarque:
				if err := upsert(tx, true, emb, "save embarque"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("lom_assigned", res.ID, res.FinalStatus, in.Responsible)
	return &res, nil
}

// ConfirmEmbarque runs the final shipment confirmation.
func (s *Service) ConfirmEmbarque(ctx context.Context, in lifecycle.EmbarqueConfirmation) (*lifecycle.Result, error) {
	var res lifecycle.Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		emb, err := loadEmbarque(tx, in.ID)
		if err != nil {
			return err
		}
		conf, err := loadConferencia(tx, in.ID)
		if err != nil {
			return err
		}

		r, err := lifecycle.ApplyEmbarqueConfirmation(emb, conf, in, s.now())
		if err != nil {
			return err
		}
		res = r

		for _, stage := range r.StagesWritten {
			switch stage {
			case lifecycle.StageEmbarque:
				if err := upsert(tx, true, emb, "save embarque"); err != nil {
					return err
				}
			case lifecycle.StageConferencia:
				if err := upsert(tx, true, conf, "save conferencia"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("embarque_confirmed", res.ID, res.FinalStatus, in.Responsible)
	return &res, nil
}

// ManualInsert carries the input for creating a record outside of bulk
// import.
type ManualInsert struct {
	FromVessel              string
	ToVessel                string
	FromDepartment          string
	ToDepartment            string
	SPN                     string
	ItemDescription         string
	OriginAllocatedPosition string
	OraclePRNumber          string
	PRNumberTMMaster        string
	QuantityToTransfer      int
	TotalAmountUSD          *decimal.Decimal
	AuthorID                string
}

// InsertManualRecord creates a Desembarque record with a generated ID and
// seeds a pending Embarque row for it. A PR TM Master number that is still
// active on another record is rejected as a duplicate.
func (s *Service) InsertManualRecord(ctx context.Context, in ManualInsert) (*models.Desembarque, error) {
	prTM := strings.TrimSpace(in.PRNumberTMMaster)
	if prTM == "" {
		return nil, &lifecycle.ValidationError{Field: "pr_number_tm_master", Reason: "must not be blank"}
	}
	if in.QuantityToTransfer < 0 {
		return nil, &lifecycle.ValidationError{Field: "quantity_to_transfer", Reason: "must not be negative"}
	}

	now := s.now()
	spn := lifecycle.NormalizeSPN(in.SPN)
	id := lifecycle.GenerateRecordID(in.ToVessel, spn, in.FromVessel, in.FromDepartment, prTM, now)

	rec := &models.Desembarque{
		ID: id,
		TransferItem: models.TransferItem{
			FromVessel:              strings.TrimSpace(in.FromVessel),
			ToVessel:                strings.TrimSpace(in.ToVessel),
			FromDepartment:          strings.TrimSpace(in.FromDepartment),
			ToDepartment:            strings.TrimSpace(in.ToDepartment),
			SPN:                     spn,
			ItemDescription:         strings.TrimSpace(in.ItemDescription),
			OriginAllocatedPosition: strings.TrimSpace(in.OriginAllocatedPosition),
			PRNumberTMMaster:        prTM,
			QuantityToTransfer:      in.QuantityToTransfer,
			TotalAmountUSD:          in.TotalAmountUSD,
		},
		UnitValueUSD:  lifecycle.UnitValue(in.TotalAmountUSD, in.QuantityToTransfer),
		AuthorID:      in.AuthorID,
		FileReference: "INDIVIDUAL-" + now.Format(time.RFC3339),
		Created:       now,
	}
	if pr := strings.TrimSpace(in.OraclePRNumber); pr != "" {
		rec.OraclePRNumber = &pr
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Desembarque
		err := tx.
			Where("pr_number_tm_master = ?", prTM).
			Where("transfer_status IS NULL OR transfer_status NOT IN ?",
				[]string{models.StatusFinalizado, models.StatusEmbarqueFinalizado}).
			First(&existing).Error
		if err == nil {
			return &lifecycle.DuplicateError{Key: "pr_number_tm_master", Value: prTM, ExistingID: existing.ID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return &lifecycle.PersistenceError{Op: "check pr duplicate", Err: err}
		}

		if err := tx.Create(rec).Error; err != nil {
			return &lifecycle.PersistenceError{Op: "create desembarque", Err: err}
		}

		seed := &models.Embarque{
			ID:           rec.ID,
			TransferItem: rec.TransferItem,
			StatusFinal:  models.StatusPendente,
		}
		if err := tx.Create(seed).Error; err != nil {
			return &lifecycle.PersistenceError{Op: "seed embarque", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit("record_inserted", rec.ID, models.StatusPendente, in.AuthorID)
	return rec, nil
}
