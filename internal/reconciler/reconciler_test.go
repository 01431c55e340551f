package reconciler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAlertaStore almacén en memoria indexado por clave de conciliación.
type fakeAlertaStore struct {
	vigentes map[string]*domain.Alerta
	nextID   int64

	crearErr    error
	crearFallas int // cuántos CrearAlerta devuelven crearErr antes de funcionar
	creadas     int
	escaladas   int
}

func newFakeAlertaStore() *fakeAlertaStore {
	return &fakeAlertaStore{vigentes: map[string]*domain.Alerta{}, nextID: 1}
}

func (s *fakeAlertaStore) GetVigentePorClave(_ context.Context, clave string) (*domain.Alerta, error) {
	return s.vigentes[clave], nil
}

func (s *fakeAlertaStore) CrearAlerta(_ context.Context, alerta *domain.Alerta) error {
	if s.crearFallas > 0 {
		s.crearFallas--
		return s.crearErr
	}
	alerta.ID = s.nextID
	s.nextID++
	s.vigentes[alerta.ClaveConciliacion()] = alerta
	s.creadas++
	return nil
}

func (s *fakeAlertaStore) EscalarSeveridad(_ context.Context, id int64, severidad domain.Severidad) error {
	for _, a := range s.vigentes {
		if a.ID == id {
			a.Severidad = severidad
			s.escaladas++
			return nil
		}
	}
	return fmt.Errorf("alerta %d not found", id)
}

func int64Ptr(v int64) *int64 { return &v }

func hallazgoControl(contactoID, controlID int64, severidad domain.Severidad) domain.Hallazgo {
	return domain.Hallazgo{
		Referencia: domain.ReferenciaEntidad{
			ContactoID:        int64Ptr(contactoID),
			ControlContactoID: int64Ptr(controlID),
		},
		Tipo:        domain.AlertaControlNoRealizado,
		Severidad:   severidad,
		Descripcion: "control vencido",
		DetectadoEn: time.Now(),
	}
}

func TestConciliar_CreaAlertaNueva(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

	res, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadAlta),
	}, hoy)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Creadas)
	assert.Equal(t, 0, res.Escaladas)

	alerta := store.vigentes["c7:i0:t0:k31:v0:Control no realizado"]
	require.NotNil(t, alerta)
	assert.Equal(t, domain.AlertaActiva, alerta.Estado)
	assert.Equal(t, domain.SeveridadAlta, alerta.Severidad)
	// la fecha de alerta queda normalizada al día
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), alerta.FechaAlerta)
}

func TestConciliar_Idempotente(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Now()

	hallazgos := []domain.Hallazgo{hallazgoControl(7, 31, domain.SeveridadMedia)}

	res1, err := rec.Conciliar(context.Background(), hallazgos, hoy)
	require.NoError(t, err)
	assert.Equal(t, 1, res1.Creadas)

	// segunda pasada sin hechos nuevos: nada cambia
	res2, err := rec.Conciliar(context.Background(), hallazgos, hoy)
	require.NoError(t, err)
	assert.Equal(t, 0, res2.Creadas)
	assert.Equal(t, 0, res2.Escaladas)
	assert.Equal(t, 1, res2.SinCambio)
	assert.Equal(t, 1, store.creadas)
}

func TestConciliar_EscalaSeveridad(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Now()

	// día 16: vence el control, severidad Media
	_, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadMedia),
	}, hoy)
	require.NoError(t, err)

	// día 36: la misma brecha pasó el umbral, severidad Alta
	res, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadAlta),
	}, hoy.AddDate(0, 0, 20))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Creadas)
	assert.Equal(t, 1, res.Escaladas)
	alerta := store.vigentes["c7:i0:t0:k31:v0:Control no realizado"]
	assert.Equal(t, domain.SeveridadAlta, alerta.Severidad)
}

func TestConciliar_NuncaBajaSeveridad(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Now()

	_, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadCritica),
	}, hoy)
	require.NoError(t, err)

	// un hallazgo posterior menos severo no degrada la alerta
	res, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadMedia),
	}, hoy)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SinCambio)
	alerta := store.vigentes["c7:i0:t0:k31:v0:Control no realizado"]
	assert.Equal(t, domain.SeveridadCritica, alerta.Severidad)
}

func TestConciliar_ConflictoCaeAEscalar(t *testing.T) {
	store := newFakeAlertaStore()
	hoy := time.Now()

	// simula una corrida concurrente: el primer INSERT choca con el índice
	// único y para entonces ya existe una alerta Media para la clave
	store.crearErr = fmt.Errorf("alerta already exists: %w", domain.ErrConflict)
	store.crearFallas = 1
	concurrente := &domain.Alerta{
		ID:                50,
		ContactoID:        int64Ptr(7),
		ControlContactoID: int64Ptr(31),
		TipoAlerta:        domain.AlertaControlNoRealizado,
		Estado:            domain.AlertaActiva,
		Severidad:         domain.SeveridadMedia,
		Descripcion:       "control vencido",
		FechaAlerta:       hoy,
	}

	// GetVigentePorClave devuelve nil la primera vez (antes del INSERT) pero
	// la alerta concurrente aparece en el reintento
	llamadas := 0
	recConGet := &Reconciler{store: &conflictStore{fakeAlertaStore: store, concurrente: concurrente, llamadas: &llamadas}, logger: zap.NewNop()}

	res, err := recConGet.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadAlta),
	}, hoy)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Creadas)
	assert.Equal(t, 1, res.Escaladas)
	assert.Equal(t, domain.SeveridadAlta, concurrente.Severidad)
}

// conflictStore hace que la alerta concurrente solo sea visible después
// del primer GetVigentePorClave.
type conflictStore struct {
	*fakeAlertaStore
	concurrente *domain.Alerta
	llamadas    *int
}

func (s *conflictStore) GetVigentePorClave(ctx context.Context, clave string) (*domain.Alerta, error) {
	*s.llamadas++
	if *s.llamadas == 1 {
		return nil, nil
	}
	if s.concurrente != nil && s.concurrente.ClaveConciliacion() == clave {
		return s.concurrente, nil
	}
	return s.fakeAlertaStore.GetVigentePorClave(ctx, clave)
}

func (s *conflictStore) EscalarSeveridad(_ context.Context, id int64, severidad domain.Severidad) error {
	if s.concurrente != nil && s.concurrente.ID == id {
		s.concurrente.Severidad = severidad
		return nil
	}
	return fmt.Errorf("alerta %d not found", id)
}

func TestConciliar_NoResuelveAlDesaparecerElHallazgo(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Now()

	_, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadMedia),
	}, hoy)
	require.NoError(t, err)

	// pasada siguiente sin hallazgos: la alerta sigue Activa
	res, err := rec.Conciliar(context.Background(), nil, hoy)
	require.NoError(t, err)

	assert.Equal(t, Resultado{}, res)
	alerta := store.vigentes["c7:i0:t0:k31:v0:Control no realizado"]
	require.NotNil(t, alerta)
	assert.Equal(t, domain.AlertaActiva, alerta.Estado)
}

func TestConciliar_ClavesDistintasNoInterfieren(t *testing.T) {
	store := newFakeAlertaStore()
	rec := NewReconciler(store, zap.NewNop())
	hoy := time.Now()

	res, err := rec.Conciliar(context.Background(), []domain.Hallazgo{
		hallazgoControl(7, 31, domain.SeveridadMedia),
		hallazgoControl(7, 32, domain.SeveridadAlta),
		hallazgoControl(8, 40, domain.SeveridadMedia),
	}, hoy)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Creadas)
	assert.Len(t, store.vigentes, 3)
}
