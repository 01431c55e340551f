package repository

import (
	"context"
	"database/sql"
	"fmt"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// EsquemasRepository catálogo de esquemas TPT (tabla esquemas_tpt),
// administrado por el equipo del programa y leído por las indicaciones.
type EsquemasRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEsquemasRepository crea el repositorio del catálogo.
func NewEsquemasRepository(db *sql.DB, logger *zap.Logger) *EsquemasRepository {
	return &EsquemasRepository{db: db, logger: logger}
}

// CrearEsquema valida e inserta un esquema del catálogo.
func (r *EsquemasRepository) CrearEsquema(ctx context.Context, esquema *domain.EsquemaTpt) error {
	if esquema == nil {
		return fmt.Errorf("esquema is required")
	}
	esquema.Activo = true
	if err := esquema.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO esquemas_tpt (codigo, nombre, duracion_meses, activo, creado_en)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, creado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		esquema.Codigo, esquema.Nombre, esquema.DuracionMeses, esquema.Activo,
	).Scan(&esquema.ID, &esquema.CreadoEn)
	if err != nil {
		return fmt.Errorf("failed to create esquema tpt: %w", err)
	}

	return nil
}

// GetEsquema obtiene un esquema por id.
func (r *EsquemasRepository) GetEsquema(ctx context.Context, id int64) (*domain.EsquemaTpt, error) {
	query := `SELECT id, codigo, nombre, duracion_meses, activo, creado_en FROM esquemas_tpt WHERE id = $1`

	var e domain.EsquemaTpt
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Codigo, &e.Nombre, &e.DuracionMeses, &e.Activo, &e.CreadoEn,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "esquema_tpt", ID: id}
		}
		return nil, fmt.Errorf("failed to get esquema tpt: %w", err)
	}

	return &e, nil
}

// ListEsquemasActivos esquemas vigentes del catálogo.
func (r *EsquemasRepository) ListEsquemasActivos(ctx context.Context) ([]*domain.EsquemaTpt, error) {
	query := `SELECT id, codigo, nombre, duracion_meses, activo, creado_en FROM esquemas_tpt WHERE activo = TRUE ORDER BY codigo`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list esquemas: %w", err)
	}
	defer rows.Close()

	var esquemas []*domain.EsquemaTpt
	for rows.Next() {
		var e domain.EsquemaTpt
		if err := rows.Scan(&e.ID, &e.Codigo, &e.Nombre, &e.DuracionMeses, &e.Activo, &e.CreadoEn); err != nil {
			return nil, fmt.Errorf("failed to scan esquema: %w", err)
		}
		esquemas = append(esquemas, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate esquemas: %w", err)
	}

	return esquemas, nil
}
