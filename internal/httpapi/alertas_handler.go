package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tbc-seguimiento/internal/cache"
	"tbc-seguimiento/internal/domain"
	"tbc-seguimiento/internal/report"
	"tbc-seguimiento/internal/repository"
	"tbc-seguimiento/internal/service"

	"go.uber.org/zap"
)

const rutaBase = "/seguimiento/api/v1"

// AlertaStore operaciones de alertas que consume el transporte.
type AlertaStore interface {
	ListAlertas(ctx context.Context, filters repository.AlertaFilters, page, size int) ([]*domain.Alerta, int, error)
	GetAlerta(ctx context.Context, id int64) (*domain.Alerta, error)
	ResolverAlerta(ctx context.Context, id int64, usuarioID int64, observaciones string, hoy time.Time) error
	DescartarAlerta(ctx context.Context, id int64, usuarioID int64, observaciones string) error
}

// Evaluaciones reevaluación a demanda de una familia.
type Evaluaciones interface {
	EvaluarCaso(ctx context.Context, casoID int64, hoy time.Time) (*service.ResultadoCaso, error)
}

// Resumenes lectura del cache de resúmenes por caso.
type Resumenes interface {
	GetResumen(ctx context.Context, casoID int64) (*cache.ResumenCaso, error)
}

// AlertasHandler transporte HTTP del módulo de alertas.
type AlertasHandler struct {
	alertas      AlertaStore
	evaluaciones Evaluaciones
	resumenes    Resumenes
	logger       *zap.Logger

	// inyectable en pruebas
	ahora func() time.Time
}

// NewAlertasHandler crea el handler de alertas.
func NewAlertasHandler(alertas AlertaStore, evaluaciones Evaluaciones, resumenes Resumenes, logger *zap.Logger) *AlertasHandler {
	return &AlertasHandler{
		alertas:      alertas,
		evaluaciones: evaluaciones,
		resumenes:    resumenes,
		logger:       logger,
		ahora:        time.Now,
	}
}

// ServeHTTP despacho de rutas.
func (h *AlertasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == rutaBase+"/alertas" && r.Method == http.MethodGet:
		h.ListAlertas(w, r)
	case path == rutaBase+"/alertas/export" && r.Method == http.MethodGet:
		h.ExportAlertas(w, r)
	case strings.HasSuffix(path, "/resolver") && r.Method == http.MethodPost:
		if id, ok := idDeRuta(path, "/alertas/", "/resolver"); ok {
			h.ResolverAlerta(w, r, id)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasSuffix(path, "/descartar") && r.Method == http.MethodPost:
		if id, ok := idDeRuta(path, "/alertas/", "/descartar"); ok {
			h.DescartarAlerta(w, r, id)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasPrefix(path, rutaBase+"/evaluar/") && r.Method == http.MethodPost:
		if id, ok := idDeRuta(path+"/", "/evaluar/", "/"); ok {
			h.EvaluarCaso(w, r, id)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case strings.HasSuffix(path, "/resumen") && r.Method == http.MethodGet:
		if id, ok := idDeRuta(path, "/casos/", "/resumen"); ok {
			h.GetResumenCaso(w, r, id)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func idDeRuta(path, antes, despues string) (int64, bool) {
	i := strings.Index(path, antes)
	if i < 0 {
		return 0, false
	}
	segmento := strings.TrimSuffix(path[i+len(antes):], despues)
	if segmento == "" || strings.Contains(segmento, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(segmento, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ListAlertas listado con filtros y paginación.
func (h *AlertasHandler) ListAlertas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filters := repository.AlertaFilters{}
	if v := strings.TrimSpace(q.Get("estado")); v != "" {
		estado := domain.EstadoAlerta(v)
		filters.Estado = &estado
	}
	if v := strings.TrimSpace(q.Get("severidad")); v != "" {
		severidad := domain.Severidad(v)
		filters.Severidad = &severidad
	}
	if v := strings.TrimSpace(q.Get("tipo")); v != "" {
		tipo := domain.TipoAlerta(v)
		filters.TipoAlerta = &tipo
	}
	if v := strings.TrimSpace(q.Get("contacto_id")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.ContactoID = &id
		}
	}
	if v := strings.TrimSpace(q.Get("caso_id")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.CasoIndiceID = &id
		}
	}

	page := parseInt(q.Get("page"), 1)
	pageSize := parseInt(q.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}

	alertas, total, err := h.alertas.ListAlertas(ctx, filters, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list alertas", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alertas"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items":     alertas,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	}))
}

type resolucionRequest struct {
	UsuarioID     int64  `json:"usuario_id"`
	Observaciones string `json:"observaciones"`
}

// ResolverAlerta cierre explícito de una alerta por un usuario.
func (h *AlertasHandler) ResolverAlerta(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()

	var req resolucionRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.alertas.ResolverAlerta(ctx, id, req.UsuarioID, req.Observaciones, h.ahora()); err != nil {
		h.escribirError(w, err, "resolve", id)
		return
	}

	alerta, err := h.alertas.GetAlerta(ctx, id)
	if err != nil {
		h.escribirError(w, err, "resolve", id)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alerta))
}

// DescartarAlerta descarte explícito (falsa alarma, dato corregido).
func (h *AlertasHandler) DescartarAlerta(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()

	var req resolucionRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.alertas.DescartarAlerta(ctx, id, req.UsuarioID, req.Observaciones); err != nil {
		h.escribirError(w, err, "discard", id)
		return
	}

	alerta, err := h.alertas.GetAlerta(ctx, id)
	if err != nil {
		h.escribirError(w, err, "discard", id)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alerta))
}

// EvaluarCaso reevaluación inmediata de una familia, típicamente tras
// corregir datos que dejaron alertas obsoletas.
func (h *AlertasHandler) EvaluarCaso(w http.ResponseWriter, r *http.Request, casoID int64) {
	ctx := r.Context()

	res, err := h.evaluaciones.EvaluarCaso(ctx, casoID, h.ahora())
	if err != nil {
		h.escribirError(w, err, "evaluate", casoID)
		return
	}

	writeJSON(w, http.StatusOK, Ok(res))
}

// GetResumenCaso resumen cacheado de la familia; 404 si no hay corrida
// reciente del lote para el caso.
func (h *AlertasHandler) GetResumenCaso(w http.ResponseWriter, r *http.Request, casoID int64) {
	ctx := r.Context()

	resumen, err := h.resumenes.GetResumen(ctx, casoID)
	if err != nil {
		h.logger.Error("Failed to get resumen", zap.Int64("caso_id", casoID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get resumen"))
		return
	}
	if resumen == nil {
		writeJSON(w, http.StatusNotFound, Fail("resumen not available for caso"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resumen))
}

// ExportAlertas descarga Excel de las alertas vigentes.
func (h *AlertasHandler) ExportAlertas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters := repository.AlertaFilters{
		Estados: []domain.EstadoAlerta{domain.AlertaActiva, domain.AlertaEnRevision},
	}
	alertas, _, err := h.alertas.ListAlertas(ctx, filters, 1, 10000)
	if err != nil {
		h.logger.Error("Failed to list alertas for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export alertas"))
		return
	}

	data, err := report.GenerateAlertasExport(alertas)
	if err != nil {
		h.logger.Error("Failed to generate alertas export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export alertas"))
		return
	}

	nombre := fmt.Sprintf("alertas_%s.xlsx", h.ahora().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+nombre+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AlertasHandler) escribirError(w http.ResponseWriter, err error, accion string, id int64) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	default:
		h.logger.Error("Request failed",
			zap.String("accion", accion),
			zap.Int64("id", id),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
