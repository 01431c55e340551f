package workflow

import (
	"time"

	"tbc-seguimiento/internal/domain"
)

// Transiciones de estado de un control programado. Igual que la máquina
// TPT, son puras: el llamador persiste el resultado. Este núcleo no
// genera automáticamente el siguiente control; programar el control N+1
// es una decisión del flujo externo.

func controlRechazado(c domain.ControlContacto, hacia domain.EstadoControl, motivo string) error {
	return &domain.TransitionError{
		Entidad: "control_contacto",
		Desde:   string(c.Estado),
		Hacia:   string(hacia),
		Motivo:  motivo,
	}
}

// MarcarRealizado transición Programado → Realizado. fecha_realizada
// toma hoy cuando se omite; resultado es texto libre pero requerido.
func MarcarRealizado(c domain.ControlContacto, fechaRealizada *time.Time, resultado string, observaciones *string, hoy time.Time) (domain.ControlContacto, error) {
	if c.Estado != domain.ControlProgramado {
		return c, controlRechazado(c, domain.ControlRealizado, "only allowed from Programado")
	}
	if resultado == "" {
		return c, domain.NewValidationError("control_contacto", "resultado", "required when marking realizado")
	}

	fr := domain.SoloFecha(hoy)
	if fechaRealizada != nil {
		if domain.EsPosterior(*fechaRealizada, hoy) {
			return c, domain.NewValidationError("control_contacto", "fecha_realizada", "must not be after today")
		}
		fr = domain.SoloFecha(*fechaRealizada)
	}

	c.Estado = domain.ControlRealizado
	c.FechaRealizada = &fr
	c.Resultado = &resultado
	c.Observaciones = observaciones
	return c, nil
}

// MarcarNoRealizado transición Programado → No realizado.
func MarcarNoRealizado(c domain.ControlContacto, observaciones *string) (domain.ControlContacto, error) {
	if c.Estado != domain.ControlProgramado {
		return c, controlRechazado(c, domain.ControlNoRealizado, "only allowed from Programado")
	}
	c.Estado = domain.ControlNoRealizado
	c.Observaciones = observaciones
	return c, nil
}

// CancelarControl transición Programado → Cancelado.
func CancelarControl(c domain.ControlContacto, observaciones *string) (domain.ControlContacto, error) {
	if c.Estado != domain.ControlProgramado {
		return c, controlRechazado(c, domain.ControlCancelado, "only allowed from Programado")
	}
	c.Estado = domain.ControlCancelado
	c.Observaciones = observaciones
	return c, nil
}
