package domain

import "time"

// EstadoTpt estado del ciclo de vida de una indicación de TPT.
type EstadoTpt string

const (
	TptIndicado   EstadoTpt = "Indicado"
	TptEnCurso    EstadoTpt = "En curso"
	TptCompletado EstadoTpt = "Completado"
	TptSuspenso   EstadoTpt = "Suspenso"
	TptAbandonado EstadoTpt = "Abandonado"
)

var estadosTptValidos = map[EstadoTpt]bool{
	TptIndicado:   true,
	TptEnCurso:    true,
	TptCompletado: true,
	TptSuspenso:   true,
	TptAbandonado: true,
}

// EsTerminal reporta si el estado no admite más transiciones.
func (e EstadoTpt) EsTerminal() bool {
	return e == TptCompletado || e == TptAbandonado
}

// TptIndicacion indicación de terapia preventiva para un contacto
// (tabla tpt_indicaciones). Estado inicial: Indicado.
type TptIndicacion struct {
	ID               int64      `db:"id"`
	ContactoID       int64      `db:"contacto_id"` // FK requerida
	EsquemaTptID     int64      `db:"esquema_tpt_id"` // FK requerida
	Estado           EstadoTpt  `db:"estado"`
	FechaIndicacion  time.Time  `db:"fecha_indicacion"`
	FechaInicio      *time.Time `db:"fecha_inicio"`
	FechaFinPrevista *time.Time `db:"fecha_fin_prevista"`
	Observaciones    *string    `db:"observaciones"`
	CreadoEn         time.Time  `db:"creado_en"`
	ActualizadoEn    time.Time  `db:"actualizado_en"`
}

// Validate aplica las invariantes de campo de la indicación.
func (t *TptIndicacion) Validate(hoy time.Time) error {
	if t.ContactoID == 0 {
		return NewValidationError("tpt_indicacion", "contacto_id", "required")
	}
	if t.EsquemaTptID == 0 {
		return NewValidationError("tpt_indicacion", "esquema_tpt_id", "required")
	}
	if !estadosTptValidos[t.Estado] {
		return NewValidationError("tpt_indicacion", "estado", "unknown value: "+string(t.Estado))
	}
	if t.FechaIndicacion.IsZero() {
		return NewValidationError("tpt_indicacion", "fecha_indicacion", "required")
	}
	if EsPosterior(t.FechaIndicacion, hoy) {
		return NewValidationError("tpt_indicacion", "fecha_indicacion", "must not be after today")
	}
	if t.FechaInicio != nil && t.FechaFinPrevista != nil && EsPosterior(*t.FechaInicio, *t.FechaFinPrevista) {
		return NewValidationError("tpt_indicacion", "fecha_inicio", "must not be after fecha_fin_prevista")
	}
	return nil
}
