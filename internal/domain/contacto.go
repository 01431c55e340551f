package domain

import "time"

// TipoContacto relación de convivencia con el caso índice.
type TipoContacto string

const (
	ContactoIntradomiciliario  TipoContacto = "Intradomiciliario"
	ContactoExtradomiciliario  TipoContacto = "Extradomiciliario"
)

// Contacto persona epidemiológicamente vinculada a un caso índice
// (tabla contactos). Pertenece exactamente a un caso.
type Contacto struct {
	ID            int64        `db:"id"`
	CasoIndiceID  int64        `db:"caso_indice_id"` // FK requerida
	Nombres       string       `db:"nombres"`
	Apellidos     string       `db:"apellidos"`
	Edad          *int         `db:"edad"`
	TipoContacto  TipoContacto `db:"tipo_contacto"`
	FechaRegistro time.Time    `db:"fecha_registro"`
	Activo        bool         `db:"activo"`
	CreadoEn      time.Time    `db:"creado_en"`
	ActualizadoEn time.Time    `db:"actualizado_en"`
}

// Validate aplica las invariantes de campo del contacto.
func (c *Contacto) Validate(hoy time.Time) error {
	if c.CasoIndiceID == 0 {
		return NewValidationError("contacto", "caso_indice_id", "required")
	}
	if c.TipoContacto != ContactoIntradomiciliario && c.TipoContacto != ContactoExtradomiciliario {
		return NewValidationError("contacto", "tipo_contacto", "unknown value: "+string(c.TipoContacto))
	}
	if c.FechaRegistro.IsZero() {
		return NewValidationError("contacto", "fecha_registro", "required")
	}
	if EsPosterior(c.FechaRegistro, hoy) {
		return NewValidationError("contacto", "fecha_registro", "must not be after today")
	}
	return nil
}
