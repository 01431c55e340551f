package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// ControlesRepository repositorio de controles clínicos
// (tabla controles_contacto).
type ControlesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewControlesRepository crea el repositorio de controles.
func NewControlesRepository(db *sql.DB, logger *zap.Logger) *ControlesRepository {
	return &ControlesRepository{db: db, logger: logger}
}

const columnasControl = `
	id, contacto_id, numero_control, estado, fecha_programada,
	fecha_realizada, resultado, observaciones, creado_en, actualizado_en`

func scanControl(row interface{ Scan(...interface{}) error }) (*domain.ControlContacto, error) {
	var c domain.ControlContacto
	var fechaRealizada sql.NullTime
	var resultado, observaciones sql.NullString
	err := row.Scan(
		&c.ID, &c.ContactoID, &c.NumeroControl, &c.Estado, &c.FechaProgramada,
		&fechaRealizada, &resultado, &observaciones, &c.CreadoEn, &c.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	if fechaRealizada.Valid {
		c.FechaRealizada = &fechaRealizada.Time
	}
	if resultado.Valid {
		c.Resultado = &resultado.String
	}
	if observaciones.Valid {
		c.Observaciones = &observaciones.String
	}
	return &c, nil
}

// CrearControl valida e inserta un control programado.
func (r *ControlesRepository) CrearControl(ctx context.Context, control *domain.ControlContacto, hoy time.Time) error {
	if control == nil {
		return fmt.Errorf("control is required")
	}
	if control.Estado == "" {
		control.Estado = domain.ControlProgramado
	}
	if err := control.Validate(hoy); err != nil {
		return err
	}

	query := `
		INSERT INTO controles_contacto (
			contacto_id, numero_control, estado, fecha_programada,
			fecha_realizada, resultado, observaciones, creado_en, actualizado_en
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, creado_en, actualizado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		control.ContactoID, control.NumeroControl, control.Estado,
		control.FechaProgramada, control.FechaRealizada, control.Resultado,
		control.Observaciones,
	).Scan(&control.ID, &control.CreadoEn, &control.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("failed to create control: %w", err)
	}

	return nil
}

// GetControl obtiene un control por id.
func (r *ControlesRepository) GetControl(ctx context.Context, id int64) (*domain.ControlContacto, error) {
	query := `SELECT` + columnasControl + ` FROM controles_contacto WHERE id = $1`

	control, err := scanControl(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "control_contacto", ID: id}
		}
		return nil, fmt.Errorf("failed to get control: %w", err)
	}

	return control, nil
}

// ListControlesByContacto controles de un contacto, ordenados por número.
func (r *ControlesRepository) ListControlesByContacto(ctx context.Context, contactoID int64) ([]*domain.ControlContacto, error) {
	query := `SELECT` + columnasControl + ` FROM controles_contacto WHERE contacto_id = $1 ORDER BY numero_control, id`

	rows, err := r.db.QueryContext(ctx, query, contactoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list controles: %w", err)
	}
	defer rows.Close()

	var controles []*domain.ControlContacto
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan control: %w", err)
		}
		controles = append(controles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate controles: %w", err)
	}

	return controles, nil
}

// ActualizarEstadoControl persiste el resultado de una transición de la
// máquina de estados de controles (workflow.MarcarRealizado y afines).
func (r *ControlesRepository) ActualizarEstadoControl(ctx context.Context, control *domain.ControlContacto) error {
	if control == nil || control.ID == 0 {
		return fmt.Errorf("control with id is required")
	}

	query := `
		UPDATE controles_contacto
		SET estado = $1,
		    fecha_realizada = $2,
		    resultado = $3,
		    observaciones = $4,
		    actualizado_en = NOW()
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		control.Estado, control.FechaRealizada, control.Resultado,
		control.Observaciones, control.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update control: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entidad: "control_contacto", ID: control.ID}
	}

	return nil
}
