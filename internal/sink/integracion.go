// Package sink publica el resumen de cada corrida de evaluación en el
// log de integración del programa (un endpoint HTTP de solo escritura).
// El cuerpo es opaco para el receptor: aquí no hay contrato de lectura.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// EventoCorrida resumen de una pasada del lote de evaluación.
type EventoCorrida struct {
	RunID            string    `json:"run_id"`
	IniciadaEn       time.Time `json:"iniciada_en"`
	DuracionMs       int64     `json:"duracion_ms"`
	CasosEvaluados   int       `json:"casos_evaluados"`
	CasosFallidos    int       `json:"casos_fallidos"`
	AlertasCreadas   int       `json:"alertas_creadas"`
	AlertasEscaladas int       `json:"alertas_escaladas"`
}

// IntegracionSink cliente del log de integración.
type IntegracionSink struct {
	httpClient *resty.Client
	logger     *zap.Logger
	habilitado bool
}

// NewIntegracionSink crea el sink. Con baseURL vacía queda deshabilitado
// y Publicar se vuelve un no-op.
func NewIntegracionSink(baseURL string, logger *zap.Logger) *IntegracionSink {
	if baseURL == "" {
		return &IntegracionSink{logger: logger, habilitado: false}
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &IntegracionSink{
		httpClient: client,
		logger:     logger,
		habilitado: true,
	}
}

// Publicar envía el evento de corrida. Un fallo del sink se reporta pero
// no debe abortar el lote: el llamador solo lo registra.
func (s *IntegracionSink) Publicar(ctx context.Context, evento *EventoCorrida) error {
	if !s.habilitado {
		return nil
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(evento).
		Post("/eventos/seguimiento")
	if err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("integration sink returned status %d", resp.StatusCode())
	}

	s.logger.Debug("run event published",
		zap.String("run_id", evento.RunID),
		zap.Int("status", resp.StatusCode()))
	return nil
}
