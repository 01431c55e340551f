// Package reconciler concilia los hallazgos del evaluador contra las
// alertas persistidas. La conciliación es idempotente sobre la clave
// (entity_ref, tipo): sin hechos nuevos, correr dos veces no cambia nada.
package reconciler

import (
	"context"
	"errors"
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// AlertaStore operaciones de persistencia que necesita la conciliación.
type AlertaStore interface {
	GetVigentePorClave(ctx context.Context, clave string) (*domain.Alerta, error)
	CrearAlerta(ctx context.Context, alerta *domain.Alerta) error
	EscalarSeveridad(ctx context.Context, id int64, severidad domain.Severidad) error
}

// Resultado contadores de una pasada de conciliación.
type Resultado struct {
	Creadas   int
	Escaladas int
	SinCambio int
}

// Reconciler aplica hallazgos sobre el almacén de alertas.
type Reconciler struct {
	store  AlertaStore
	logger *zap.Logger
}

// NewReconciler crea el conciliador.
func NewReconciler(store AlertaStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Conciliar procesa los hallazgos de una pasada de evaluación:
//   - sin alerta vigente para la clave: crea una Activa
//   - alerta vigente con severidad menor: escala (nunca baja)
//   - alerta vigente igual o más severa: no toca nada
//
// Nunca resuelve: la resolución es siempre una acción explícita de un
// usuario, aun cuando el hallazgo haya desaparecido.
func (r *Reconciler) Conciliar(ctx context.Context, hallazgos []domain.Hallazgo, hoy time.Time) (Resultado, error) {
	var res Resultado

	for i := range hallazgos {
		h := &hallazgos[i]
		if err := r.conciliarUno(ctx, h, hoy, &res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func (r *Reconciler) conciliarUno(ctx context.Context, h *domain.Hallazgo, hoy time.Time, res *Resultado) error {
	clave := h.Clave()

	vigente, err := r.store.GetVigentePorClave(ctx, clave)
	if err != nil {
		return err
	}

	if vigente == nil {
		err := r.store.CrearAlerta(ctx, r.alertaDesdeHallazgo(h, hoy))
		if errors.Is(err, domain.ErrConflict) {
			// otra corrida creó la alerta entre el SELECT y el INSERT;
			// reintentar por el camino de actualización
			vigente, err = r.store.GetVigentePorClave(ctx, clave)
			if err != nil {
				return err
			}
			if vigente == nil {
				// la concurrente ya fue resuelta; la brecha sigue en pie
				return r.store.CrearAlerta(ctx, r.alertaDesdeHallazgo(h, hoy))
			}
			return r.escalarSiCorresponde(ctx, h, vigente, res)
		}
		if err != nil {
			return err
		}
		res.Creadas++
		r.logger.Info("alerta created",
			zap.String("clave", clave),
			zap.String("tipo", string(h.Tipo)),
			zap.String("severidad", string(h.Severidad)))
		return nil
	}

	return r.escalarSiCorresponde(ctx, h, vigente, res)
}

func (r *Reconciler) escalarSiCorresponde(ctx context.Context, h *domain.Hallazgo, vigente *domain.Alerta, res *Resultado) error {
	if !h.Severidad.Supera(vigente.Severidad) {
		res.SinCambio++
		return nil
	}

	if err := r.store.EscalarSeveridad(ctx, vigente.ID, h.Severidad); err != nil {
		return err
	}
	res.Escaladas++
	r.logger.Info("alerta escalated",
		zap.Int64("alerta_id", vigente.ID),
		zap.String("desde", string(vigente.Severidad)),
		zap.String("hacia", string(h.Severidad)))
	return nil
}

func (r *Reconciler) alertaDesdeHallazgo(h *domain.Hallazgo, hoy time.Time) *domain.Alerta {
	ref := h.Referencia
	return &domain.Alerta{
		ContactoID:           ref.ContactoID,
		CasoIndiceID:         ref.CasoIndiceID,
		TptIndicacionID:      ref.TptIndicacionID,
		ControlContactoID:    ref.ControlContactoID,
		VisitaDomiciliariaID: ref.VisitaDomiciliariaID,
		TipoAlerta:           h.Tipo,
		Estado:               domain.AlertaActiva,
		Severidad:            h.Severidad,
		Descripcion:          h.Descripcion,
		FechaAlerta:          domain.SoloFecha(hoy),
	}
}
