package evaluator

import (
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"
)

// controlesVencidos regla "Control no realizado": un control sigue en
// Programado y su fecha programada ya pasó. Severidad Media; Alta cuando
// el atraso supera el umbral.
func (e *Evaluador) controlesVencidos(hoy time.Time, g *domain.Grafo) []domain.Hallazgo {
	var hallazgos []domain.Hallazgo

	for _, contacto := range g.Contactos {
		contactoID := contacto.ID
		for _, control := range g.Controles[contactoID] {
			if !control.Vencido(hoy) {
				continue
			}
			dias := control.DiasVencido(hoy)
			severidad := domain.SeveridadMedia
			if dias > e.umbrales.ControlAltaDias {
				severidad = domain.SeveridadAlta
			}
			controlID := control.ID
			hallazgos = append(hallazgos, domain.Hallazgo{
				Referencia: domain.ReferenciaEntidad{
					ContactoID:        &contactoID,
					ControlContactoID: &controlID,
				},
				Tipo:        domain.AlertaControlNoRealizado,
				Severidad:   severidad,
				Descripcion: fmt.Sprintf("Control N° %d vencido hace %d días", control.NumeroControl, dias),
				DetectadoEn: domain.SoloFecha(hoy),
			})
		}
	}

	return hallazgos
}
