package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer stage status values. The Desembarque stage uses TransferStatus
// (NULL meaning "not yet confirmed"); Conferencia and Embarque carry
// StatusFinal through the rest of the pipeline.
const (
	StatusPendente            = "Pendente"
	StatusFinalizado          = "Finalizado"
	StatusAwaitingConferencia = "Aguardando Conferência Base"
	StatusDesembarqueDone     = "Desembarque realizado"
	StatusQuarentena          = "Quarentena"
	StatusSentToEmbarque      = "Enviado para Embarque"
	StatusEmbarqueFinalizado  = "Embarque Finalizado"
)

// TransferItem is the field set shared by all three stage tables. A record is
// mirrored field-for-field as it moves Desembarque -> Conferencia -> Embarque,
// so the common columns live in one embedded struct.
type TransferItem struct {
	FromVessel              string           `gorm:"size:100;index" json:"from_vessel"`
	ToVessel                string           `gorm:"size:100;index" json:"to_vessel"`
	FromDepartment          string           `gorm:"size:100" json:"from_department"`
	ToDepartment            string           `gorm:"size:100" json:"to_department"`
	SPN                     string           `gorm:"column:spn;size:50" json:"spn"` // zero-padded, keep as string
	ItemDescription         string           `json:"item_description"`
	OriginAllocatedPosition string           `gorm:"size:100" json:"origin_allocated_position"`
	OraclePRNumber          *string          `gorm:"column:oracle_pr_number;size:50" json:"oracle_pr_number,omitempty"`
	PRNumberTMMaster        string           `gorm:"column:pr_number_tm_master;size:50;index" json:"pr_number_tm_master"`
	QuantityToTransfer      int              `json:"quantity_to_transfer"`
	TotalAmountUSD          *decimal.Decimal `gorm:"column:total_amount_usd;type:decimal(19,2)" json:"total_amount_usd,omitempty"`
}

// Desembarque is the origin-stage record, created by bulk import or manual
// insert. TransferStatus stays NULL until the disembark confirmation runs.
type Desembarque struct {
	ID                     string  `gorm:"primaryKey;size:80;column:id" json:"id"`
	BusinessIntelligenceID *string `gorm:"column:business_intelligence_id;size:50;index" json:"business_intelligence_id,omitempty"`

	TransferItem `gorm:"embedded"`

	UnitValueUSD      *decimal.Decimal `gorm:"column:unit_value_usd;type:decimal(19,2)" json:"unit_value_usd,omitempty"`
	TransferStatus    *string          `gorm:"size:100;index" json:"transfer_status,omitempty"`
	QuantityConfirmed *int             `json:"quantity_confirmed,omitempty"`
	Responsible       *string          `gorm:"size:100" json:"responsible,omitempty"`
	MinSuggestion     *int             `json:"min_suggestion,omitempty"`
	MaxSuggestion     *int             `json:"max_suggestion,omitempty"`
	Justification     *string          `json:"justification,omitempty"`
	ReasonCode        *string          `gorm:"size:100" json:"reason_code,omitempty"`

	AuthorID      string     `gorm:"size:100" json:"author_id"`
	FileReference string     `gorm:"size:255;index" json:"file_reference"`
	Created       time.Time  `json:"created"`
	Modified      *time.Time `json:"modified,omitempty"`
}

func (Desembarque) TableName() string {
	return "desembarque"
}

// Conferencia is the verification stage. Its presence implies the record
// passed a nonzero-quantity disembark confirmation. Quarantine and LOM state
// live here.
type Conferencia struct {
	ID string `gorm:"primaryKey;size:80;column:id" json:"id"`

	TransferItem `gorm:"embedded"`

	StatusFinal         string  `gorm:"size:100;index" json:"status_final"`
	Observation         *string `json:"observation,omitempty"`
	Responsible         *string `gorm:"size:100" json:"responsible,omitempty"`
	DesembarqueQuantity int     `json:"desembarque_quantity"`
	QuantityConfirmed   *int    `json:"quantity_confirmed,omitempty"` // confirmed at the Conferencia stage

	QuarantineStart       *time.Time `gorm:"index" json:"quarantine_start,omitempty"`
	QuarantineEnd         *time.Time `json:"quarantine_end,omitempty"`
	QuarantineResponsible *string    `gorm:"size:100" json:"quarantine_responsible,omitempty"`
	QuarantineObservation *string    `json:"quarantine_observation,omitempty"`

	LOM            *string `gorm:"column:lom;size:100" json:"lom,omitempty"`
	LOMObservation *string `gorm:"column:lom_observation" json:"lom_observation,omitempty"`
	LOMResponsible *string `gorm:"column:lom_responsible;size:100" json:"lom_responsible,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Conferencia) TableName() string {
	return "conferencia"
}

// Embarque is the final stage. StatusFinal ends at "Embarque Finalizado";
// rows are never deleted.
type Embarque struct {
	ID string `gorm:"primaryKey;size:80;column:id" json:"id"`

	TransferItem `gorm:"embedded"`

	ConferenciaQuantity *int    `json:"conferencia_quantity,omitempty"`
	QuantityConfirmed   *int    `json:"quantity_confirmed,omitempty"` // confirmed at the Embarque stage
	StatusFinal         string  `gorm:"size:100;index" json:"status_final"`
	Observation         *string `json:"observation,omitempty"`
	Responsible         *string `gorm:"size:100" json:"responsible,omitempty"`

	QuarantineStart *time.Time `json:"quarantine_start,omitempty"`
	QuarantineEnd   *time.Time `json:"quarantine_end,omitempty"`

	LOM            *string `gorm:"column:lom;size:100" json:"lom,omitempty"`
	LOMObservation *string `gorm:"column:lom_observation" json:"lom_observation,omitempty"`

	// Photo proof attached at the Conferencia screen, served back on demand.
	ImageData       []byte     `json:"-"`
	ImageMIME       *string    `gorm:"size:100" json:"image_mime,omitempty"`
	ImageUploadedAt *time.Time `json:"image_uploaded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Embarque) TableName() string {
	return "embarque"
}

// Vessel is the lookup list behind the vessel dropdowns.
type Vessel struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

func (Vessel) TableName() string {
	return "vessels"
}

// Department is the lookup list behind the department dropdowns.
type Department struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

func (Department) TableName() string {
	return "departments"
}
