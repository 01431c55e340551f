// Package cache mantiene en Redis el resumen de cumplimiento por caso,
// para que el backend de consulta no tenga que recontar alertas en cada
// vista de familia.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tbc-seguimiento/internal/config"
	"tbc-seguimiento/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewRedisClient crea el cliente de Redis.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// ResumenCaso instantánea del estado de cumplimiento de una familia,
// escrita al final de cada evaluación.
type ResumenCaso struct {
	CasoIndiceID     int64                    `json:"caso_indice_id"`
	CodigoCaso       string                   `json:"codigo_caso"`
	Contactos        int                      `json:"contactos"`
	AlertasVigentes  int                      `json:"alertas_vigentes"`
	PorSeveridad     map[domain.Severidad]int `json:"por_severidad"`
	UltimaEvaluacion time.Time                `json:"ultima_evaluacion"`
}

// ResumenManager gestor del cache de resúmenes.
type ResumenManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewResumenManager crea el gestor de cache.
func NewResumenManager(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *ResumenManager {
	return &ResumenManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (m *ResumenManager) clave(casoID int64) string {
	return fmt.Sprintf("%s%d%s",
		m.config.Seguimiento.Cache.ResumenKeyPrefix,
		casoID,
		m.config.Seguimiento.Cache.ResumenSuffix,
	)
}

// GuardarResumen escribe el resumen del caso con TTL.
func (m *ResumenManager) GuardarResumen(ctx context.Context, resumen *ResumenCaso) error {
	jsonData, err := json.Marshal(resumen)
	if err != nil {
		return fmt.Errorf("failed to marshal resumen: %w", err)
	}

	key := m.clave(resumen.CasoIndiceID)
	ttl := time.Duration(m.config.Seguimiento.Cache.ResumenTTL) * time.Second
	if err := m.redisClient.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set resumen cache: %w", err)
	}

	m.logger.Debug("resumen cached",
		zap.Int64("caso_id", resumen.CasoIndiceID),
		zap.Int("alertas_vigentes", resumen.AlertasVigentes))
	return nil
}

// GetResumen lee el resumen de un caso; nil cuando la clave no existe o
// ya expiró.
func (m *ResumenManager) GetResumen(ctx context.Context, casoID int64) (*ResumenCaso, error) {
	val, err := m.redisClient.Get(ctx, m.clave(casoID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resumen cache: %w", err)
	}

	var resumen ResumenCaso
	if err := json.Unmarshal([]byte(val), &resumen); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resumen: %w", err)
	}

	return &resumen, nil
}

// InvalidarResumen borra el resumen de un caso, p.ej. al desactivarlo.
func (m *ResumenManager) InvalidarResumen(ctx context.Context, casoID int64) error {
	if err := m.redisClient.Del(ctx, m.clave(casoID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate resumen cache: %w", err)
	}
	return nil
}
