package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tbc-seguimiento/internal/cache"
	"tbc-seguimiento/internal/config"
	"tbc-seguimiento/internal/domain"
	"tbc-seguimiento/internal/evaluator"
	"tbc-seguimiento/internal/reconciler"
	"tbc-seguimiento/internal/sink"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependencias del lote, como interfaces para poder probarlo con dobles.
type listadorCasos interface {
	ListCasosActivosIDs(ctx context.Context) ([]int64, error)
}

type cargadorGrafo interface {
	CargarGrafo(ctx context.Context, casoID int64) (*domain.Grafo, error)
}

type contadorAlertas interface {
	ContarVigentesPorSeveridad(ctx context.Context, casoID int64, contactoIDs []int64) (map[domain.Severidad]int, error)
}

type guardadorResumen interface {
	GuardarResumen(ctx context.Context, resumen *cache.ResumenCaso) error
}

type publicadorEventos interface {
	Publicar(ctx context.Context, evento *sink.EventoCorrida) error
}

// ResultadoCaso resultado de evaluar una familia.
type ResultadoCaso struct {
	CasoID    int64              `json:"caso_id"`
	Hallazgos int                `json:"hallazgos"`
	Creadas   int                `json:"alertas_creadas"`
	Escaladas int                `json:"alertas_escaladas"`
	Resumen   *cache.ResumenCaso `json:"resumen"`
}

// Lote corrida periódica de evaluación sobre todos los casos activos.
// Cada familia se procesa de forma aislada: el fallo de una no detiene
// a las demás.
type Lote struct {
	config    *config.Config
	casos     listadorCasos
	grafos    cargadorGrafo
	alertas   contadorAlertas
	evaluador *evaluator.Evaluador
	rec       *reconciler.Reconciler
	resumenes guardadorResumen
	sink      publicadorEventos
	logger    *zap.Logger

	// inyectable en pruebas
	ahora func() time.Time
}

// NewLote crea la corrida de lote.
func NewLote(
	cfg *config.Config,
	casos listadorCasos,
	grafos cargadorGrafo,
	alertas contadorAlertas,
	evaluador *evaluator.Evaluador,
	rec *reconciler.Reconciler,
	resumenes guardadorResumen,
	sink publicadorEventos,
	logger *zap.Logger,
) *Lote {
	return &Lote{
		config:    cfg,
		casos:     casos,
		grafos:    grafos,
		alertas:   alertas,
		evaluador: evaluador,
		rec:       rec,
		resumenes: resumenes,
		sink:      sink,
		logger:    logger,
		ahora:     time.Now,
	}
}

// Start ejecuta una pasada inmediata y luego una por intervalo, hasta
// que se cancele el contexto.
func (l *Lote) Start(ctx context.Context) error {
	l.logger.Info("Batch runner started",
		zap.Int("intervalo_horas", l.config.Seguimiento.IntervaloHoras),
	)

	ticker := time.NewTicker(time.Duration(l.config.Seguimiento.IntervaloHoras) * time.Hour)
	defer ticker.Stop()

	if err := l.EvaluarTodos(ctx); err != nil {
		l.logger.Error("Failed to run batch on startup",
			zap.Error(err),
		)
	}

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Batch runner stopped")
			return nil
		case <-ticker.C:
			if err := l.EvaluarTodos(ctx); err != nil {
				l.logger.Error("Failed to run batch",
					zap.Error(err),
				)
				// la siguiente pasada vuelve a intentar
			}
		}
	}
}

// EvaluarTodos corre una pasada completa del lote sobre los casos
// activos, repartidos entre trabajadores.
func (l *Lote) EvaluarTodos(ctx context.Context) error {
	runID := uuid.New().String()
	inicio := l.ahora()
	hoy := domain.SoloFecha(inicio)

	casoIDs, err := l.casos.ListCasosActivosIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active casos: %w", err)
	}

	l.logger.Info("Batch run started",
		zap.String("run_id", runID),
		zap.Int("casos", len(casoIDs)),
	)

	trabajadores := l.config.Seguimiento.Trabajadores
	if trabajadores <= 0 {
		trabajadores = 1
	}

	var mu sync.Mutex
	evento := sink.EventoCorrida{
		RunID:      runID,
		IniciadaEn: inicio,
	}

	tareas := make(chan int64)
	var wg sync.WaitGroup
	for w := 0; w < trabajadores; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for casoID := range tareas {
				res, err := l.evaluarCaso(ctx, casoID, hoy)

				mu.Lock()
				if err != nil {
					// aislamiento de fallos: se registra y se sigue con
					// el resto de las familias
					evento.CasosFallidos++
					mu.Unlock()
					l.logger.Error("Failed to evaluate caso",
						zap.String("run_id", runID),
						zap.Int64("caso_id", casoID),
						zap.Error(err),
					)
					continue
				}
				evento.CasosEvaluados++
				evento.AlertasCreadas += res.Creadas
				evento.AlertasEscaladas += res.Escaladas
				mu.Unlock()
			}
		}()
	}

	for _, id := range casoIDs {
		select {
		case <-ctx.Done():
			close(tareas)
			wg.Wait()
			return ctx.Err()
		case tareas <- id:
		}
	}
	close(tareas)
	wg.Wait()

	evento.DuracionMs = time.Since(inicio).Milliseconds()

	l.logger.Info("Batch run finished",
		zap.String("run_id", runID),
		zap.Int("evaluados", evento.CasosEvaluados),
		zap.Int("fallidos", evento.CasosFallidos),
		zap.Int("creadas", evento.AlertasCreadas),
		zap.Int("escaladas", evento.AlertasEscaladas),
		zap.Int64("duracion_ms", evento.DuracionMs),
	)

	if err := l.sink.Publicar(ctx, &evento); err != nil {
		l.logger.Warn("Failed to publish run event",
			zap.String("run_id", runID),
			zap.Error(err),
		)
	}

	return nil
}

// evaluarCaso carga, evalúa y concilia una familia, y refresca su
// resumen en cache.
func (l *Lote) evaluarCaso(ctx context.Context, casoID int64, hoy time.Time) (*ResultadoCaso, error) {
	g, err := l.grafos.CargarGrafo(ctx, casoID)
	if err != nil {
		return nil, err
	}

	hallazgos := l.evaluador.Evaluar(hoy, g)

	res, err := l.rec.Conciliar(ctx, hallazgos, hoy)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile caso %d: %w", casoID, err)
	}

	contactoIDs := make([]int64, 0, len(g.Contactos))
	for _, c := range g.Contactos {
		contactoIDs = append(contactoIDs, c.ID)
	}

	conteos, err := l.alertas.ContarVigentesPorSeveridad(ctx, casoID, contactoIDs)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range conteos {
		total += n
	}

	resumen := &cache.ResumenCaso{
		CasoIndiceID:     casoID,
		CodigoCaso:       g.Caso.CodigoCaso,
		Contactos:        len(g.Contactos),
		AlertasVigentes:  total,
		PorSeveridad:     conteos,
		UltimaEvaluacion: l.ahora(),
	}
	if err := l.resumenes.GuardarResumen(ctx, resumen); err != nil {
		// el resumen es derivado; no invalida la evaluación
		l.logger.Warn("Failed to cache resumen",
			zap.Int64("caso_id", casoID),
			zap.Error(err),
		)
	}

	return &ResultadoCaso{
		CasoID:    casoID,
		Hallazgos: len(hallazgos),
		Creadas:   res.Creadas,
		Escaladas: res.Escaladas,
		Resumen:   resumen,
	}, nil
}
