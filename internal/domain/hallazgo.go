package domain

import "time"

// ReferenciaEntidad identifica la entidad que disparó un hallazgo junto
// con su contacto o caso propietario. Exactamente uno de los campos de
// entidad disparadora está presente según el tipo de hallazgo.
type ReferenciaEntidad struct {
	ContactoID           *int64
	CasoIndiceID         *int64
	TptIndicacionID      *int64
	ControlContactoID    *int64
	VisitaDomiciliariaID *int64
}

// Hallazgo hecho producido por el evaluador sobre una brecha de
// cumplimiento. Todavía no persistido: el conciliador decide qué alerta
// crear o escalar.
type Hallazgo struct {
	Referencia  ReferenciaEntidad
	Tipo        TipoAlerta
	Severidad   Severidad
	Descripcion string
	DetectadoEn time.Time
}

// Clave clave de conciliación (entity_ref, tipo) del hallazgo; coincide
// con Alerta.ClaveConciliacion para la alerta que le corresponde.
func (h *Hallazgo) Clave() string {
	r := h.Referencia
	return claveConciliacion(r.ContactoID, r.CasoIndiceID, r.TptIndicacionID, r.ControlContactoID, r.VisitaDomiciliariaID, h.Tipo)
}

// Grafo instantánea de solo lectura de una familia de caso: el caso
// índice, sus contactos y las entidades hijas, tal como estaban al
// momento de la evaluación.
type Grafo struct {
	Caso      *CasoIndice
	Contactos []*Contacto
	Examenes  map[int64][]*ExamenContacto     // por contacto_id
	Controles map[int64][]*ControlContacto    // por contacto_id
	Tpts      map[int64][]*TptIndicacion      // por contacto_id
	Visitas   []*VisitaDomiciliaria           // del caso y de todos sus contactos
}

// VisitasDeContacto visitas del grafo que pertenecen al contacto dado.
func (g *Grafo) VisitasDeContacto(contactoID int64) []*VisitaDomiciliaria {
	var out []*VisitaDomiciliaria
	for _, v := range g.Visitas {
		if v.ContactoID != nil && *v.ContactoID == contactoID {
			out = append(out, v)
		}
	}
	return out
}

// VisitasDeCaso visitas del grafo registradas directamente sobre el caso
// índice.
func (g *Grafo) VisitasDeCaso() []*VisitaDomiciliaria {
	var out []*VisitaDomiciliaria
	for _, v := range g.Visitas {
		if v.CasoIndiceID != nil && g.Caso != nil && *v.CasoIndiceID == g.Caso.ID {
			out = append(out, v)
		}
	}
	return out
}
