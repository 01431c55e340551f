package domain

import "time"

// EstadoControl estado de un control clínico programado.
type EstadoControl string

const (
	ControlProgramado  EstadoControl = "Programado"
	ControlRealizado   EstadoControl = "Realizado"
	ControlNoRealizado EstadoControl = "No realizado"
	ControlCancelado   EstadoControl = "Cancelado"
)

var estadosControlValidos = map[EstadoControl]bool{
	ControlProgramado:  true,
	ControlRealizado:   true,
	ControlNoRealizado: true,
	ControlCancelado:   true,
}

// ControlContacto control clínico periódico de un contacto
// (tabla controles_contacto).
//
// numero_control es una secuencia dentro del contacto; su unicidad no se
// impone programáticamente (comportamiento heredado, se deja advisory).
type ControlContacto struct {
	ID              int64         `db:"id"`
	ContactoID      int64         `db:"contacto_id"` // FK requerida
	NumeroControl   int           `db:"numero_control"`
	Estado          EstadoControl `db:"estado"`
	FechaProgramada time.Time     `db:"fecha_programada"`
	FechaRealizada  *time.Time    `db:"fecha_realizada"`
	Resultado       *string       `db:"resultado"`
	Observaciones   *string       `db:"observaciones"`
	CreadoEn        time.Time     `db:"creado_en"`
	ActualizadoEn   time.Time     `db:"actualizado_en"`
}

// Validate aplica las invariantes de campo del control.
func (c *ControlContacto) Validate(hoy time.Time) error {
	if c.ContactoID == 0 {
		return NewValidationError("control_contacto", "contacto_id", "required")
	}
	if c.NumeroControl <= 0 {
		return NewValidationError("control_contacto", "numero_control", "must be positive")
	}
	if !estadosControlValidos[c.Estado] {
		return NewValidationError("control_contacto", "estado", "unknown value: "+string(c.Estado))
	}
	if c.FechaProgramada.IsZero() {
		return NewValidationError("control_contacto", "fecha_programada", "required")
	}
	// estado='Realizado' exige fecha_realizada
	if c.Estado == ControlRealizado && c.FechaRealizada == nil {
		return NewValidationError("control_contacto", "fecha_realizada", "required when estado is Realizado")
	}
	if c.Estado != ControlRealizado && c.FechaRealizada != nil {
		return NewValidationError("control_contacto", "fecha_realizada", "only allowed when estado is Realizado")
	}
	return nil
}

// Vencido reporta si el control está pendiente y su fecha programada ya pasó.
func (c *ControlContacto) Vencido(hoy time.Time) bool {
	return c.Estado == ControlProgramado && EsPosterior(hoy, c.FechaProgramada)
}

// DiasVencido días transcurridos desde la fecha programada. Cero si no
// está vencido.
func (c *ControlContacto) DiasVencido(hoy time.Time) int {
	if !c.Vencido(hoy) {
		return 0
	}
	return DiasEntre(c.FechaProgramada, hoy)
}
