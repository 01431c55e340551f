package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// TptRepository repositorio de indicaciones TPT (tabla tpt_indicaciones).
type TptRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTptRepository crea el repositorio de indicaciones TPT.
func NewTptRepository(db *sql.DB, logger *zap.Logger) *TptRepository {
	return &TptRepository{db: db, logger: logger}
}

const columnasTpt = `
	id, contacto_id, esquema_tpt_id, estado, fecha_indicacion,
	fecha_inicio, fecha_fin_prevista, observaciones, creado_en, actualizado_en`

func scanTpt(row interface{ Scan(...interface{}) error }) (*domain.TptIndicacion, error) {
	var t domain.TptIndicacion
	var fechaInicio, fechaFin sql.NullTime
	var observaciones sql.NullString
	err := row.Scan(
		&t.ID, &t.ContactoID, &t.EsquemaTptID, &t.Estado, &t.FechaIndicacion,
		&fechaInicio, &fechaFin, &observaciones, &t.CreadoEn, &t.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	if fechaInicio.Valid {
		t.FechaInicio = &fechaInicio.Time
	}
	if fechaFin.Valid {
		t.FechaFinPrevista = &fechaFin.Time
	}
	if observaciones.Valid {
		t.Observaciones = &observaciones.String
	}
	return &t, nil
}

// CrearIndicacion valida e inserta una indicación en estado Indicado.
// El esquema referido debe existir y estar activo.
func (r *TptRepository) CrearIndicacion(ctx context.Context, ind *domain.TptIndicacion, hoy time.Time) error {
	if ind == nil {
		return fmt.Errorf("indicacion is required")
	}
	if ind.Estado == "" {
		ind.Estado = domain.TptIndicado
	}
	if err := ind.Validate(hoy); err != nil {
		return err
	}

	var existe bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM esquemas_tpt WHERE id = $1 AND activo = TRUE)`,
		ind.EsquemaTptID,
	).Scan(&existe)
	if err != nil {
		return fmt.Errorf("failed to check esquema tpt: %w", err)
	}
	if !existe {
		return &domain.NotFoundError{Entidad: "esquema_tpt", ID: ind.EsquemaTptID}
	}

	query := `
		INSERT INTO tpt_indicaciones (
			contacto_id, esquema_tpt_id, estado, fecha_indicacion,
			fecha_inicio, fecha_fin_prevista, observaciones, creado_en, actualizado_en
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, creado_en, actualizado_en
	`

	err = r.db.QueryRowContext(ctx, query,
		ind.ContactoID, ind.EsquemaTptID, ind.Estado, ind.FechaIndicacion,
		ind.FechaInicio, ind.FechaFinPrevista, ind.Observaciones,
	).Scan(&ind.ID, &ind.CreadoEn, &ind.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("failed to create tpt indicacion: %w", err)
	}

	return nil
}

// GetIndicacion obtiene una indicación por id.
func (r *TptRepository) GetIndicacion(ctx context.Context, id int64) (*domain.TptIndicacion, error) {
	query := `SELECT` + columnasTpt + ` FROM tpt_indicaciones WHERE id = $1`

	ind, err := scanTpt(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "tpt_indicacion", ID: id}
		}
		return nil, fmt.Errorf("failed to get tpt indicacion: %w", err)
	}

	return ind, nil
}

// ListIndicacionesByContacto indicaciones de un contacto.
func (r *TptRepository) ListIndicacionesByContacto(ctx context.Context, contactoID int64) ([]*domain.TptIndicacion, error) {
	query := `SELECT` + columnasTpt + ` FROM tpt_indicaciones WHERE contacto_id = $1 ORDER BY fecha_indicacion, id`

	rows, err := r.db.QueryContext(ctx, query, contactoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tpt indicaciones: %w", err)
	}
	defer rows.Close()

	var inds []*domain.TptIndicacion
	for rows.Next() {
		t, err := scanTpt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tpt indicacion: %w", err)
		}
		inds = append(inds, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tpt indicaciones: %w", err)
	}

	return inds, nil
}

// ActualizarEstadoIndicacion persiste el resultado de una transición de la
// máquina de estados TPT (workflow.IniciarTpt y afines).
func (r *TptRepository) ActualizarEstadoIndicacion(ctx context.Context, ind *domain.TptIndicacion) error {
	if ind == nil || ind.ID == 0 {
		return fmt.Errorf("indicacion with id is required")
	}

	query := `
		UPDATE tpt_indicaciones
		SET estado = $1,
		    fecha_inicio = $2,
		    fecha_fin_prevista = $3,
		    observaciones = $4,
		    actualizado_en = NOW()
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		ind.Estado, ind.FechaInicio, ind.FechaFinPrevista, ind.Observaciones, ind.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tpt indicacion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entidad: "tpt_indicacion", ID: ind.ID}
	}

	return nil
}
