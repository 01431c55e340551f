package domain

import "time"

// ResultadoVisita resultado de una visita domiciliaria.
type ResultadoVisita string

const (
	VisitaRealizada   ResultadoVisita = "Realizada"
	VisitaNoRealizada ResultadoVisita = "No realizada"
	VisitaReagendada  ResultadoVisita = "Reagendada"
)

var resultadosVisitaValidos = map[ResultadoVisita]bool{
	VisitaRealizada:   true,
	VisitaNoRealizada: true,
	VisitaReagendada:  true,
}

// VisitaDomiciliaria visita de seguimiento en domicilio
// (tabla visitas_domiciliarias). Pertenece a un contacto o a un caso
// índice, exactamente uno de los dos.
type VisitaDomiciliaria struct {
	ID                int64           `db:"id"`
	ContactoID        *int64          `db:"contacto_id"`
	CasoIndiceID      *int64          `db:"caso_indice_id"`
	FechaVisita       time.Time       `db:"fecha_visita"`
	ResultadoVisita   ResultadoVisita `db:"resultado_visita"`
	MotivoNoRealizada *string         `db:"motivo_no_realizada"`
	Observaciones     *string         `db:"observaciones"`
	CreadoEn          time.Time       `db:"creado_en"`
}

// Validate aplica las invariantes de la visita, incluida la exclusión
// mutua entre contacto_id y caso_indice_id.
func (v *VisitaDomiciliaria) Validate(hoy time.Time) error {
	if v.ContactoID == nil && v.CasoIndiceID == nil {
		return NewValidationError("visita_domiciliaria", "contacto_id", "exactly one of contacto_id or caso_indice_id is required")
	}
	if v.ContactoID != nil && v.CasoIndiceID != nil {
		return NewValidationError("visita_domiciliaria", "caso_indice_id", "contacto_id and caso_indice_id are mutually exclusive")
	}
	if !resultadosVisitaValidos[v.ResultadoVisita] {
		return NewValidationError("visita_domiciliaria", "resultado_visita", "unknown value: "+string(v.ResultadoVisita))
	}
	if v.ResultadoVisita == VisitaNoRealizada && (v.MotivoNoRealizada == nil || *v.MotivoNoRealizada == "") {
		return NewValidationError("visita_domiciliaria", "motivo_no_realizada", "required when resultado_visita is No realizada")
	}
	if v.ResultadoVisita != VisitaNoRealizada && v.MotivoNoRealizada != nil {
		return NewValidationError("visita_domiciliaria", "motivo_no_realizada", "only allowed when resultado_visita is No realizada")
	}
	if v.FechaVisita.IsZero() {
		return NewValidationError("visita_domiciliaria", "fecha_visita", "required")
	}
	if EsPosterior(v.FechaVisita, hoy) {
		return NewValidationError("visita_domiciliaria", "fecha_visita", "must not be after today")
	}
	return nil
}
