package workflow

import (
	"time"

	"tbc-seguimiento/internal/domain"
)

// Máquina de estados del ciclo de vida TPT:
//
//	Indicado → En curso → {Completado | Suspenso | Abandonado}
//	Suspenso → {En curso | Abandonado}
//
// Completado y Abandonado son terminales. Las funciones son puras: reciben
// la indicación por valor y devuelven la copia con el siguiente estado y
// las fechas derivadas; el llamador persiste.

func transicionRechazada(ind domain.TptIndicacion, hacia domain.EstadoTpt, motivo string) error {
	return &domain.TransitionError{
		Entidad: "tpt_indicacion",
		Desde:   string(ind.Estado),
		Hacia:   string(hacia),
		Motivo:  motivo,
	}
}

// IniciarTpt transición Indicado → En curso. Exige fecha_inicio no futura
// y no anterior a fecha_indicacion. Si fecha_fin_prevista está ausente la
// deriva como fecha_inicio + duracion_meses meses calendario del esquema.
func IniciarTpt(ind domain.TptIndicacion, esquema domain.EsquemaTpt, fechaInicio, hoy time.Time) (domain.TptIndicacion, error) {
	if ind.Estado.EsTerminal() {
		return ind, transicionRechazada(ind, domain.TptEnCurso, "terminal state")
	}
	if ind.Estado != domain.TptIndicado {
		return ind, transicionRechazada(ind, domain.TptEnCurso, "only allowed from Indicado")
	}
	if fechaInicio.IsZero() {
		return ind, domain.NewValidationError("tpt_indicacion", "fecha_inicio", "required to start treatment")
	}
	if domain.EsPosterior(fechaInicio, hoy) {
		return ind, domain.NewValidationError("tpt_indicacion", "fecha_inicio", "must not be after today")
	}
	if domain.EsPosterior(ind.FechaIndicacion, fechaInicio) {
		return ind, domain.NewValidationError("tpt_indicacion", "fecha_inicio", "must not be before fecha_indicacion")
	}

	inicio := domain.SoloFecha(fechaInicio)
	ind.Estado = domain.TptEnCurso
	ind.FechaInicio = &inicio
	if ind.FechaFinPrevista == nil {
		fin := inicio.AddDate(0, esquema.DuracionMeses, 0)
		ind.FechaFinPrevista = &fin
	}
	return ind, nil
}

// CompletarTpt transición En curso → Completado. No puede afirmarse antes
// de que termine el curso prescrito.
func CompletarTpt(ind domain.TptIndicacion, hoy time.Time) (domain.TptIndicacion, error) {
	if ind.Estado.EsTerminal() {
		return ind, transicionRechazada(ind, domain.TptCompletado, "terminal state")
	}
	if ind.Estado != domain.TptEnCurso {
		return ind, transicionRechazada(ind, domain.TptCompletado, "only allowed from En curso")
	}
	if ind.FechaFinPrevista == nil {
		return ind, transicionRechazada(ind, domain.TptCompletado, "fecha_fin_prevista is not set")
	}
	if domain.EsPosterior(*ind.FechaFinPrevista, hoy) {
		return ind, transicionRechazada(ind, domain.TptCompletado, "prescribed course has not ended yet")
	}
	ind.Estado = domain.TptCompletado
	return ind, nil
}

// SuspenderTpt transición En curso → Suspenso.
func SuspenderTpt(ind domain.TptIndicacion) (domain.TptIndicacion, error) {
	if ind.Estado.EsTerminal() {
		return ind, transicionRechazada(ind, domain.TptSuspenso, "terminal state")
	}
	if ind.Estado != domain.TptEnCurso {
		return ind, transicionRechazada(ind, domain.TptSuspenso, "only allowed from En curso")
	}
	ind.Estado = domain.TptSuspenso
	return ind, nil
}

// ReanudarTpt transición Suspenso → En curso.
func ReanudarTpt(ind domain.TptIndicacion) (domain.TptIndicacion, error) {
	if ind.Estado.EsTerminal() {
		return ind, transicionRechazada(ind, domain.TptEnCurso, "terminal state")
	}
	if ind.Estado != domain.TptSuspenso {
		return ind, transicionRechazada(ind, domain.TptEnCurso, "only allowed from Suspenso")
	}
	ind.Estado = domain.TptEnCurso
	return ind, nil
}

// AbandonarTpt transición En curso | Suspenso → Abandonado. Siempre
// permitida desde esos estados; es la condición que consume el evaluador
// de cumplimiento.
func AbandonarTpt(ind domain.TptIndicacion) (domain.TptIndicacion, error) {
	if ind.Estado.EsTerminal() {
		return ind, transicionRechazada(ind, domain.TptAbandonado, "terminal state")
	}
	if ind.Estado != domain.TptEnCurso && ind.Estado != domain.TptSuspenso {
		return ind, transicionRechazada(ind, domain.TptAbandonado, "only allowed from En curso or Suspenso")
	}
	ind.Estado = domain.TptAbandonado
	return ind, nil
}
