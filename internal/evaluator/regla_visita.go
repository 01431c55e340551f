package evaluator

import (
	"time"

	"tbc-seguimiento/internal/domain"
)

// visitasNoRealizadas regla "Visita no realizada": una visita quedó en
// "No realizada" y no existe una visita posterior con otro resultado para
// el mismo contacto o caso índice. Una visita posterior también fallida
// no levanta la brecha: cada fallo sin cierre emite su propio hallazgo.
func (e *Evaluador) visitasNoRealizadas(hoy time.Time, g *domain.Grafo) []domain.Hallazgo {
	var hallazgos []domain.Hallazgo

	for _, visita := range g.Visitas {
		if visita.ResultadoVisita != domain.VisitaNoRealizada {
			continue
		}
		if cerradaPorVisitaPosterior(visita, g.Visitas) {
			continue
		}
		visitaID := visita.ID
		hallazgos = append(hallazgos, domain.Hallazgo{
			Referencia: domain.ReferenciaEntidad{
				ContactoID:           visita.ContactoID,
				CasoIndiceID:         visita.CasoIndiceID,
				VisitaDomiciliariaID: &visitaID,
			},
			Tipo:        domain.AlertaVisitaNoRealizada,
			Severidad:   domain.SeveridadMedia,
			Descripcion: "Visita domiciliaria no realizada sin visita posterior efectiva",
			DetectadoEn: domain.SoloFecha(hoy),
		})
	}

	return hallazgos
}

// cerradaPorVisitaPosterior busca una visita del mismo propietario, con
// fecha posterior y resultado distinto de "No realizada".
func cerradaPorVisitaPosterior(v *domain.VisitaDomiciliaria, todas []*domain.VisitaDomiciliaria) bool {
	for _, otra := range todas {
		if otra.ID == v.ID {
			continue
		}
		if !mismoPropietario(v, otra) {
			continue
		}
		if otra.ResultadoVisita == domain.VisitaNoRealizada {
			continue
		}
		if domain.EsPosterior(otra.FechaVisita, v.FechaVisita) {
			return true
		}
	}
	return false
}

func mismoPropietario(a, b *domain.VisitaDomiciliaria) bool {
	if a.ContactoID != nil && b.ContactoID != nil {
		return *a.ContactoID == *b.ContactoID
	}
	if a.CasoIndiceID != nil && b.CasoIndiceID != nil {
		return *a.CasoIndiceID == *b.CasoIndiceID
	}
	return false
}
