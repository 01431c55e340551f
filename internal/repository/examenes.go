package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// ExamenesRepository repositorio de exámenes de contacto
// (tabla examenes_contacto).
type ExamenesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExamenesRepository crea el repositorio de exámenes.
func NewExamenesRepository(db *sql.DB, logger *zap.Logger) *ExamenesRepository {
	return &ExamenesRepository{db: db, logger: logger}
}

// CrearExamen valida e inserta un examen.
func (r *ExamenesRepository) CrearExamen(ctx context.Context, examen *domain.ExamenContacto, hoy time.Time) error {
	if examen == nil {
		return fmt.Errorf("examen is required")
	}
	if err := examen.Validate(hoy); err != nil {
		return err
	}

	query := `
		INSERT INTO examenes_contacto (contacto_id, tipo_examen, fecha_examen, resultado, creado_en)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, creado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		examen.ContactoID, examen.TipoExamen, examen.FechaExamen, examen.Resultado,
	).Scan(&examen.ID, &examen.CreadoEn)
	if err != nil {
		return fmt.Errorf("failed to create examen: %w", err)
	}

	return nil
}

// ListExamenesByContacto exámenes de un contacto, del más reciente al más
// antiguo.
func (r *ExamenesRepository) ListExamenesByContacto(ctx context.Context, contactoID int64) ([]*domain.ExamenContacto, error) {
	query := `
		SELECT id, contacto_id, tipo_examen, fecha_examen, resultado, creado_en
		FROM examenes_contacto
		WHERE contacto_id = $1
		ORDER BY fecha_examen DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, contactoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list examenes: %w", err)
	}
	defer rows.Close()

	var examenes []*domain.ExamenContacto
	for rows.Next() {
		var e domain.ExamenContacto
		var resultado sql.NullString
		if err := rows.Scan(&e.ID, &e.ContactoID, &e.TipoExamen, &e.FechaExamen, &resultado, &e.CreadoEn); err != nil {
			return nil, fmt.Errorf("failed to scan examen: %w", err)
		}
		if resultado.Valid {
			e.Resultado = &resultado.String
		}
		examenes = append(examenes, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate examenes: %w", err)
	}

	return examenes, nil
}
