package domain

import (
	"fmt"
	"time"
)

// TipoAlerta clase de incumplimiento que originó la alerta.
type TipoAlerta string

const (
	AlertaControlNoRealizado TipoAlerta = "Control no realizado"
	AlertaTptNoIniciada      TipoAlerta = "TPT no iniciada"
	AlertaTptAbandonada      TipoAlerta = "TPT abandonada"
	AlertaVisitaNoRealizada  TipoAlerta = "Visita no realizada"
	AlertaOtro               TipoAlerta = "Otro"
)

var tiposAlertaValidos = map[TipoAlerta]bool{
	AlertaControlNoRealizado: true,
	AlertaTptNoIniciada:      true,
	AlertaTptAbandonada:      true,
	AlertaVisitaNoRealizada:  true,
	AlertaOtro:               true,
}

// EstadoAlerta estado de gestión de la alerta.
type EstadoAlerta string

const (
	AlertaActiva     EstadoAlerta = "Activa"
	AlertaEnRevision EstadoAlerta = "En revisión"
	AlertaResuelta   EstadoAlerta = "Resuelta"
	AlertaDescartada EstadoAlerta = "Descartada"
)

var estadosAlertaValidos = map[EstadoAlerta]bool{
	AlertaActiva:     true,
	AlertaEnRevision: true,
	AlertaResuelta:   true,
	AlertaDescartada: true,
}

// Severidad nivel de severidad de la alerta.
type Severidad string

const (
	SeveridadBaja    Severidad = "Baja"
	SeveridadMedia   Severidad = "Media"
	SeveridadAlta    Severidad = "Alta"
	SeveridadCritica Severidad = "Crítica"
)

var rangoSeveridad = map[Severidad]int{
	SeveridadBaja:    1,
	SeveridadMedia:   2,
	SeveridadAlta:    3,
	SeveridadCritica: 4,
}

// Rango orden total de severidades, usado por la escalación monótona del
// conciliador.
func (s Severidad) Rango() int {
	return rangoSeveridad[s]
}

// Supera reporta si s es estrictamente más severa que otra.
func (s Severidad) Supera(otra Severidad) bool {
	return s.Rango() > otra.Rango()
}

// Alerta registro persistido y accionable de una brecha de cumplimiento
// (tabla alertas). Pertenece a un contacto o a un caso índice, al menos
// uno (a diferencia de la visita, aquí no hay exclusión mutua).
type Alerta struct {
	ID                   int64        `db:"id"`
	ContactoID           *int64       `db:"contacto_id"`
	CasoIndiceID         *int64       `db:"caso_indice_id"`
	TptIndicacionID      *int64       `db:"tpt_indicacion_id"`
	ControlContactoID    *int64       `db:"control_contacto_id"`
	VisitaDomiciliariaID *int64       `db:"visita_domiciliaria_id"`
	TipoAlerta           TipoAlerta   `db:"tipo_alerta"`
	Estado               EstadoAlerta `db:"estado"`
	Severidad            Severidad    `db:"severidad"`
	Descripcion          string       `db:"descripcion"`
	FechaAlerta          time.Time    `db:"fecha_alerta"`
	FechaResolucion      *time.Time   `db:"fecha_resolucion"`
	UsuarioResuelveID    *int64       `db:"usuario_resuelve_id"`
	Observaciones        *string      `db:"observaciones"`
	CreadoEn             time.Time    `db:"creado_en"`
	ActualizadoEn        time.Time    `db:"actualizado_en"`
}

// Validate aplica las invariantes de campo de la alerta.
func (a *Alerta) Validate() error {
	if a.ContactoID == nil && a.CasoIndiceID == nil {
		return NewValidationError("alerta", "contacto_id", "at least one of contacto_id or caso_indice_id is required")
	}
	if !tiposAlertaValidos[a.TipoAlerta] {
		return NewValidationError("alerta", "tipo_alerta", "unknown value: "+string(a.TipoAlerta))
	}
	if !estadosAlertaValidos[a.Estado] {
		return NewValidationError("alerta", "estado", "unknown value: "+string(a.Estado))
	}
	if a.Severidad.Rango() == 0 {
		return NewValidationError("alerta", "severidad", "unknown value: "+string(a.Severidad))
	}
	// estado='Resuelta' exige fecha y usuario de resolución
	if a.Estado == AlertaResuelta {
		if a.FechaResolucion == nil {
			return NewValidationError("alerta", "fecha_resolucion", "required when estado is Resuelta")
		}
		if a.UsuarioResuelveID == nil {
			return NewValidationError("alerta", "usuario_resuelve_id", "required when estado is Resuelta")
		}
	}
	return nil
}

// ClaveConciliacion clave estable (entity_ref, tipo) sobre la que el
// conciliador hace upsert; respaldada por un índice único en alertas.
func (a *Alerta) ClaveConciliacion() string {
	return claveConciliacion(a.ContactoID, a.CasoIndiceID, a.TptIndicacionID, a.ControlContactoID, a.VisitaDomiciliariaID, a.TipoAlerta)
}

func claveConciliacion(contactoID, casoID, tptID, controlID, visitaID *int64, tipo TipoAlerta) string {
	f := func(p *int64) int64 {
		if p == nil {
			return 0
		}
		return *p
	}
	return fmt.Sprintf("c%d:i%d:t%d:k%d:v%d:%s", f(contactoID), f(casoID), f(tptID), f(controlID), f(visitaID), tipo)
}
