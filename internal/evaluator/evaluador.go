package evaluator

import (
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// Umbrales parámetros de las reglas de cumplimiento.
type Umbrales struct {
	// Días de atraso de un control a partir de los cuales la severidad
	// escala de Media a Alta.
	ControlAltaDias int
	// Días desde la indicación sin inicio de TPT para emitir hallazgo.
	TptNoIniciadaDias int
}

// UmbralesPorDefecto valores del programa nacional.
func UmbralesPorDefecto() Umbrales {
	return Umbrales{
		ControlAltaDias:   15,
		TptNoIniciadaDias: 30,
	}
}

// Evaluador evalúa las reglas de cumplimiento sobre la instantánea de una
// familia de caso. No escribe nada: produce hallazgos que el conciliador
// transforma en alertas. Con el mismo grafo y la misma fecha el resultado
// es siempre idéntico.
type Evaluador struct {
	umbrales Umbrales
	logger   *zap.Logger
}

// NewEvaluador crea el evaluador.
func NewEvaluador(umbrales Umbrales, logger *zap.Logger) *Evaluador {
	return &Evaluador{
		umbrales: umbrales,
		logger:   logger,
	}
}

// Evaluar recorre el grafo y aplica cada regla de forma independiente.
// Una misma corrida puede emitir cero, uno o varios hallazgos por entidad;
// varios controles vencidos del mismo contacto producen un hallazgo cada
// uno, sin deduplicación.
func (e *Evaluador) Evaluar(hoy time.Time, g *domain.Grafo) []domain.Hallazgo {
	var hallazgos []domain.Hallazgo

	hallazgos = append(hallazgos, e.controlesVencidos(hoy, g)...)
	hallazgos = append(hallazgos, e.tptNoIniciadas(hoy, g)...)
	hallazgos = append(hallazgos, e.tptAbandonadas(hoy, g)...)
	hallazgos = append(hallazgos, e.visitasNoRealizadas(hoy, g)...)

	if len(hallazgos) > 0 && e.logger != nil {
		campos := []zap.Field{zap.Int("hallazgos", len(hallazgos))}
		if g.Caso != nil {
			campos = append(campos, zap.Int64("caso_indice_id", g.Caso.ID))
		}
		e.logger.Debug("Compliance evaluation produced findings", campos...)
	}

	return hallazgos
}
