package evaluator

import (
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"
)

// tptNoIniciadas regla "TPT no iniciada": la indicación sigue en estado
// Indicado pasado el umbral de días desde fecha_indicacion.
func (e *Evaluador) tptNoIniciadas(hoy time.Time, g *domain.Grafo) []domain.Hallazgo {
	var hallazgos []domain.Hallazgo

	for _, contacto := range g.Contactos {
		contactoID := contacto.ID
		for _, tpt := range g.Tpts[contactoID] {
			if tpt.Estado != domain.TptIndicado {
				continue
			}
			dias := domain.DiasEntre(tpt.FechaIndicacion, hoy)
			if dias <= e.umbrales.TptNoIniciadaDias {
				continue
			}
			tptID := tpt.ID
			hallazgos = append(hallazgos, domain.Hallazgo{
				Referencia: domain.ReferenciaEntidad{
					ContactoID:      &contactoID,
					TptIndicacionID: &tptID,
				},
				Tipo:        domain.AlertaTptNoIniciada,
				Severidad:   domain.SeveridadAlta,
				Descripcion: fmt.Sprintf("TPT indicada hace %d días sin inicio de tratamiento", dias),
				DetectadoEn: domain.SoloFecha(hoy),
			})
		}
	}

	return hallazgos
}

// tptAbandonadas regla "TPT abandonada": el abandono es un estado terminal
// de falla y siempre produce un hallazgo crítico mientras la indicación
// permanezca en ese estado.
func (e *Evaluador) tptAbandonadas(hoy time.Time, g *domain.Grafo) []domain.Hallazgo {
	var hallazgos []domain.Hallazgo

	for _, contacto := range g.Contactos {
		contactoID := contacto.ID
		for _, tpt := range g.Tpts[contactoID] {
			if tpt.Estado != domain.TptAbandonado {
				continue
			}
			tptID := tpt.ID
			hallazgos = append(hallazgos, domain.Hallazgo{
				Referencia: domain.ReferenciaEntidad{
					ContactoID:      &contactoID,
					TptIndicacionID: &tptID,
				},
				Tipo:        domain.AlertaTptAbandonada,
				Severidad:   domain.SeveridadCritica,
				Descripcion: "Tratamiento preventivo abandonado",
				DetectadoEn: domain.SoloFecha(hoy),
			})
		}
	}

	return hallazgos
}
