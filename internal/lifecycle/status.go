package lifecycle

import (
	"github.com/snmlog/transferplus/internal/models"
)

// Stage identifies one of the three persisted stage tables.
type Stage string

const (
	StageDesembarque Stage = "desembarque"
	StageConferencia Stage = "conferencia"
	StageEmbarque    Stage = "embarque"
)

// Result reports what a transition wrote and which status it landed on.
type Result struct {
	ID            string  `json:"id"`
	FinalStatus   string  `json:"final_status"`
	StagesWritten []Stage `json:"stages_written"`
}

func (r *Result) wrote(s Stage) {
	r.StagesWritten = append(r.StagesWritten, s)
}

// ReasonCodes is the closed set of recognized disembark reason codes. "Outros"
// is the catch-all and, like any unrecognized code, resolves to the
// "Desembarque realizado" fallback instead of naming itself.
var ReasonCodes = map[string]bool{
	"Estoque mínimo a bordo requerido": true,
	"Não operacional":                  true,
	"Ajuste de Inventário":             true,
	"Material de Contrato":             true,
	"Material de Projeto":              true,
	"Material em uso (WIP)":            true,
	"Outros":                           true,
}

const reasonCatchAll = "Outros"

// DeriveDesembarqueStatus resolves the status a nonzero-quantity disembark
// confirmation lands on:
//   - a recognized specific reason code becomes the status itself;
//   - "Outros" and unrecognized codes fall back to "Desembarque realizado";
//   - no reason at all means the record waits for base verification.
func DeriveDesembarqueStatus(reasonCode string) string {
	if reasonCode == "" {
		return models.StatusAwaitingConferencia
	}
	if !ReasonCodes[reasonCode] || reasonCode == reasonCatchAll {
		return models.StatusDesembarqueDone
	}
	return reasonCode
}
