package domain

import "time"

// TipoExamen modalidad de examen aplicada al contacto.
type TipoExamen string

const (
	ExamenClinico        TipoExamen = "Clínico"
	ExamenRadiologico    TipoExamen = "Radiológico"
	ExamenInmunologico   TipoExamen = "Inmunológico"
	ExamenBacteriologico TipoExamen = "Bacteriológico"
	ExamenIntegral       TipoExamen = "Integral"
)

var tiposExamenValidos = map[TipoExamen]bool{
	ExamenClinico:        true,
	ExamenRadiologico:    true,
	ExamenInmunologico:   true,
	ExamenBacteriologico: true,
	ExamenIntegral:       true,
}

// ExamenContacto examen realizado a un contacto (tabla examenes_contacto).
type ExamenContacto struct {
	ID          int64      `db:"id"`
	ContactoID  int64      `db:"contacto_id"` // FK requerida
	TipoExamen  TipoExamen `db:"tipo_examen"`
	FechaExamen time.Time  `db:"fecha_examen"`
	Resultado   *string    `db:"resultado"`
	CreadoEn    time.Time  `db:"creado_en"`
}

// Validate aplica las invariantes de campo del examen.
func (e *ExamenContacto) Validate(hoy time.Time) error {
	if e.ContactoID == 0 {
		return NewValidationError("examen_contacto", "contacto_id", "required")
	}
	if !tiposExamenValidos[e.TipoExamen] {
		return NewValidationError("examen_contacto", "tipo_examen", "unknown value: "+string(e.TipoExamen))
	}
	if e.FechaExamen.IsZero() {
		return NewValidationError("examen_contacto", "fecha_examen", "required")
	}
	if EsPosterior(e.FechaExamen, hoy) {
		return NewValidationError("examen_contacto", "fecha_examen", "must not be after today")
	}
	return nil
}
