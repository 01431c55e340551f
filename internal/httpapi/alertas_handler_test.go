package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tbc-seguimiento/internal/cache"
	"tbc-seguimiento/internal/domain"
	"tbc-seguimiento/internal/repository"
	"tbc-seguimiento/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAlertaStore struct {
	alertas map[int64]*domain.Alerta

	resolverErr error
	resueltas   []int64
}

func (f *fakeAlertaStore) ListAlertas(_ context.Context, filters repository.AlertaFilters, page, size int) ([]*domain.Alerta, int, error) {
	var out []*domain.Alerta
	for _, a := range f.alertas {
		if filters.Severidad != nil && a.Severidad != *filters.Severidad {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeAlertaStore) GetAlerta(_ context.Context, id int64) (*domain.Alerta, error) {
	a, ok := f.alertas[id]
	if !ok {
		return nil, &domain.NotFoundError{Entidad: "alerta", ID: id}
	}
	return a, nil
}

func (f *fakeAlertaStore) ResolverAlerta(_ context.Context, id int64, usuarioID int64, observaciones string, hoy time.Time) error {
	if f.resolverErr != nil {
		return f.resolverErr
	}
	a, ok := f.alertas[id]
	if !ok {
		return &domain.NotFoundError{Entidad: "alerta", ID: id}
	}
	a.Estado = domain.AlertaResuelta
	a.UsuarioResuelveID = &usuarioID
	f.resueltas = append(f.resueltas, id)
	return nil
}

func (f *fakeAlertaStore) DescartarAlerta(_ context.Context, id int64, usuarioID int64, observaciones string) error {
	a, ok := f.alertas[id]
	if !ok {
		return &domain.NotFoundError{Entidad: "alerta", ID: id}
	}
	a.Estado = domain.AlertaDescartada
	return nil
}

type fakeResumenes struct {
	resumenes map[int64]*cache.ResumenCaso
}

func (f *fakeResumenes) GetResumen(_ context.Context, casoID int64) (*cache.ResumenCaso, error) {
	return f.resumenes[casoID], nil
}

type fakeEvaluaciones struct {
	evaluados []int64
	err       error
}

func (f *fakeEvaluaciones) EvaluarCaso(_ context.Context, casoID int64, _ time.Time) (*service.ResultadoCaso, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.evaluados = append(f.evaluados, casoID)
	return &service.ResultadoCaso{CasoID: casoID, Hallazgos: 2, Creadas: 1}, nil
}

func setupHandler() (*fakeAlertaStore, *fakeEvaluaciones, *Router) {
	contactoID := int64(7)
	store := &fakeAlertaStore{
		alertas: map[int64]*domain.Alerta{
			100: {
				ID:          100,
				ContactoID:  &contactoID,
				TipoAlerta:  domain.AlertaControlNoRealizado,
				Estado:      domain.AlertaActiva,
				Severidad:   domain.SeveridadAlta,
				Descripcion: "control vencido",
				FechaAlerta: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	evals := &fakeEvaluaciones{}
	resumenes := &fakeResumenes{
		resumenes: map[int64]*cache.ResumenCaso{
			1: {CasoIndiceID: 1, CodigoCaso: "CASO-1a2b3c4d", AlertasVigentes: 2},
		},
	}

	handler := NewAlertasHandler(store, evals, resumenes, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterSeguimientoRoutes(handler)

	return store, evals, router
}

func TestListAlertas(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodGet, "/seguimiento/api/v1/alertas?severidad=Alta", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[map[string]json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ResultSuccess, resp.Code)
	assert.JSONEq(t, `1`, string(resp.Result["total"]))
}

func TestResolverAlerta(t *testing.T) {
	store, _, router := setupHandler()

	body := strings.NewReader(`{"usuario_id": 9, "observaciones": "control realizado fuera de plazo"}`)
	req := httptest.NewRequest(http.MethodPost, "/seguimiento/api/v1/alertas/100/resolver", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{100}, store.resueltas)
	assert.Equal(t, domain.AlertaResuelta, store.alertas[100].Estado)
}

func TestResolverAlerta_NoExiste(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodPost, "/seguimiento/api/v1/alertas/999/resolver",
		strings.NewReader(`{"usuario_id": 9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolverAlerta_TransicionInvalida(t *testing.T) {
	store, _, router := setupHandler()
	store.resolverErr = &domain.TransitionError{
		Entidad: "alerta", Desde: "Resuelta", Hacia: "Resuelta",
		Motivo: "only allowed from Activa or En revisión",
	}

	req := httptest.NewRequest(http.MethodPost, "/seguimiento/api/v1/alertas/100/resolver",
		strings.NewReader(`{"usuario_id": 9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDescartarAlerta(t *testing.T) {
	store, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodPost, "/seguimiento/api/v1/alertas/100/descartar",
		strings.NewReader(`{"usuario_id": 9, "observaciones": "dato corregido"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.AlertaDescartada, store.alertas[100].Estado)
}

func TestEvaluarCaso(t *testing.T) {
	_, evals, router := setupHandler()

	req := httptest.NewRequest(http.MethodPost, "/seguimiento/api/v1/evaluar/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{5}, evals.evaluados)

	var resp Result[service.ResultadoCaso]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Result.CasoID)
	assert.Equal(t, 2, resp.Result.Hallazgos)
}

func TestExportAlertas(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodGet, "/seguimiento/api/v1/alertas/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestGetResumenCaso(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodGet, "/seguimiento/api/v1/casos/1/resumen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[cache.ResumenCaso]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CASO-1a2b3c4d", resp.Result.CodigoCaso)
	assert.Equal(t, 2, resp.Result.AlertasVigentes)
}

func TestGetResumenCaso_SinCorrida(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodGet, "/seguimiento/api/v1/casos/99/resumen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRutasDesconocidas(t *testing.T) {
	_, _, router := setupHandler()

	req := httptest.NewRequest(http.MethodDelete, "/seguimiento/api/v1/alertas/100/resolver", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
