package domain

import "time"

// EsquemaTpt esquema de terapia preventiva de tuberculosis, entidad de
// catálogo administrada por el equipo del programa (tabla esquemas_tpt).
type EsquemaTpt struct {
	ID            int64     `db:"id"`
	Codigo        string    `db:"codigo"`
	Nombre        string    `db:"nombre"`
	DuracionMeses int       `db:"duracion_meses"`
	Activo        bool      `db:"activo"`
	CreadoEn      time.Time `db:"creado_en"`
}

// Validate aplica las invariantes de campo del esquema.
func (e *EsquemaTpt) Validate() error {
	if e.Codigo == "" {
		return NewValidationError("esquema_tpt", "codigo", "required")
	}
	if e.Nombre == "" {
		return NewValidationError("esquema_tpt", "nombre", "required")
	}
	if e.DuracionMeses <= 0 {
		return NewValidationError("esquema_tpt", "duracion_meses", "must be positive")
	}
	return nil
}
