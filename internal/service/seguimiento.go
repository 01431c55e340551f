package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/cache"
	"tbc-seguimiento/internal/config"
	"tbc-seguimiento/internal/database"
	"tbc-seguimiento/internal/evaluator"
	"tbc-seguimiento/internal/reconciler"
	"tbc-seguimiento/internal/repository"
	"tbc-seguimiento/internal/sink"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SeguimientoService servicio de seguimiento de contactos (integra capas).
type SeguimientoService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger

	casosRepo     *repository.CasosRepository
	contactosRepo *repository.ContactosRepository
	examenesRepo  *repository.ExamenesRepository
	controlesRepo *repository.ControlesRepository
	tptRepo       *repository.TptRepository
	visitasRepo   *repository.VisitasRepository
	alertasRepo   *repository.AlertasRepository
	grafoRepo     *repository.GrafoRepository

	resumenMgr *cache.ResumenManager
	evaluador  *evaluator.Evaluador
	rec        *reconciler.Reconciler
	sink       *sink.IntegracionSink
	lote       *Lote
}

// NewSeguimientoService crea el servicio completo y abre las conexiones.
func NewSeguimientoService(cfg *config.Config, logger *zap.Logger) (*SeguimientoService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	redisClient := cache.NewRedisClient(&cfg.Redis)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	casosRepo := repository.NewCasosRepository(db, logger)
	contactosRepo := repository.NewContactosRepository(db, logger)
	examenesRepo := repository.NewExamenesRepository(db, logger)
	controlesRepo := repository.NewControlesRepository(db, logger)
	tptRepo := repository.NewTptRepository(db, logger)
	visitasRepo := repository.NewVisitasRepository(db, logger)
	alertasRepo := repository.NewAlertasRepository(db, logger)
	grafoRepo := repository.NewGrafoRepository(
		casosRepo, contactosRepo, examenesRepo, controlesRepo, tptRepo, visitasRepo, logger,
	)

	resumenMgr := cache.NewResumenManager(cfg, redisClient, logger)

	umbrales := evaluator.Umbrales{
		ControlAltaDias:   cfg.Seguimiento.ControlAltaDias,
		TptNoIniciadaDias: cfg.Seguimiento.TptNoIniciadaDias,
	}
	eval := evaluator.NewEvaluador(umbrales, logger)
	rec := reconciler.NewReconciler(alertasRepo, logger)
	integracion := sink.NewIntegracionSink(cfg.IntegracionURL, logger)

	s := &SeguimientoService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		logger:        logger,
		casosRepo:     casosRepo,
		contactosRepo: contactosRepo,
		examenesRepo:  examenesRepo,
		controlesRepo: controlesRepo,
		tptRepo:       tptRepo,
		visitasRepo:   visitasRepo,
		alertasRepo:   alertasRepo,
		grafoRepo:     grafoRepo,
		resumenMgr:    resumenMgr,
		evaluador:     eval,
		rec:           rec,
		sink:          integracion,
	}
	s.lote = NewLote(cfg, casosRepo, grafoRepo, alertasRepo, eval, rec, resumenMgr, integracion, logger)

	return s, nil
}

// AlertasRepo acceso del transporte HTTP al repositorio de alertas.
func (s *SeguimientoService) AlertasRepo() *repository.AlertasRepository {
	return s.alertasRepo
}

// ResumenManager acceso al cache de resúmenes.
func (s *SeguimientoService) ResumenManager() *cache.ResumenManager {
	return s.resumenMgr
}

// EvaluarCaso corre evaluación y conciliación de una sola familia, para
// la reevaluación a demanda tras una corrección de datos.
func (s *SeguimientoService) EvaluarCaso(ctx context.Context, casoID int64, hoy time.Time) (*ResultadoCaso, error) {
	return s.lote.evaluarCaso(ctx, casoID, hoy)
}

// Start arranca el lote periódico; bloquea hasta cancelar el contexto.
func (s *SeguimientoService) Start(ctx context.Context) error {
	s.logger.Info("Starting seguimiento service",
		zap.Int("intervalo_horas", s.config.Seguimiento.IntervaloHoras),
		zap.Int("trabajadores", s.config.Seguimiento.Trabajadores),
	)

	return s.lote.Start(ctx)
}

// Stop cierra las conexiones.
func (s *SeguimientoService) Stop() error {
	s.logger.Info("Stopping seguimiento service")

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}
