package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// ContactosRepository repositorio de contactos (tabla contactos).
type ContactosRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContactosRepository crea el repositorio de contactos.
func NewContactosRepository(db *sql.DB, logger *zap.Logger) *ContactosRepository {
	return &ContactosRepository{db: db, logger: logger}
}

const columnasContacto = `
	id, caso_indice_id, nombres, apellidos, edad, tipo_contacto,
	fecha_registro, activo, creado_en, actualizado_en`

func scanContacto(row interface{ Scan(...interface{}) error }) (*domain.Contacto, error) {
	var c domain.Contacto
	var edad sql.NullInt64
	err := row.Scan(
		&c.ID, &c.CasoIndiceID, &c.Nombres, &c.Apellidos, &edad,
		&c.TipoContacto, &c.FechaRegistro, &c.Activo, &c.CreadoEn, &c.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	if edad.Valid {
		e := int(edad.Int64)
		c.Edad = &e
	}
	return &c, nil
}

// CrearContacto valida e inserta un contacto. El caso índice referido debe
// existir y estar activo.
func (r *ContactosRepository) CrearContacto(ctx context.Context, contacto *domain.Contacto, hoy time.Time) error {
	if contacto == nil {
		return fmt.Errorf("contacto is required")
	}
	contacto.Activo = true
	if err := contacto.Validate(hoy); err != nil {
		return err
	}

	var existe bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM casos_indice WHERE id = $1 AND activo = TRUE)`,
		contacto.CasoIndiceID,
	).Scan(&existe)
	if err != nil {
		return fmt.Errorf("failed to check caso indice: %w", err)
	}
	if !existe {
		return &domain.NotFoundError{Entidad: "caso_indice", ID: contacto.CasoIndiceID}
	}

	query := `
		INSERT INTO contactos (
			caso_indice_id, nombres, apellidos, edad, tipo_contacto,
			fecha_registro, activo, creado_en, actualizado_en
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, creado_en, actualizado_en
	`

	err = r.db.QueryRowContext(ctx, query,
		contacto.CasoIndiceID, contacto.Nombres, contacto.Apellidos, contacto.Edad,
		contacto.TipoContacto, contacto.FechaRegistro, contacto.Activo,
	).Scan(&contacto.ID, &contacto.CreadoEn, &contacto.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("failed to create contacto: %w", err)
	}

	return nil
}

// GetContacto obtiene un contacto por id.
func (r *ContactosRepository) GetContacto(ctx context.Context, id int64) (*domain.Contacto, error) {
	query := `SELECT` + columnasContacto + ` FROM contactos WHERE id = $1`

	contacto, err := scanContacto(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "contacto", ID: id}
		}
		return nil, fmt.Errorf("failed to get contacto: %w", err)
	}

	return contacto, nil
}

// ListContactosByCaso contactos activos de un caso índice.
func (r *ContactosRepository) ListContactosByCaso(ctx context.Context, casoID int64) ([]*domain.Contacto, error) {
	query := `SELECT` + columnasContacto + ` FROM contactos WHERE caso_indice_id = $1 AND activo = TRUE ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, casoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contactos: %w", err)
	}
	defer rows.Close()

	var contactos []*domain.Contacto
	for rows.Next() {
		c, err := scanContacto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contacto: %w", err)
		}
		contactos = append(contactos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contactos: %w", err)
	}

	return contactos, nil
}

// DesactivarContacto baja lógica del contacto.
func (r *ContactosRepository) DesactivarContacto(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contactos SET activo = FALSE, actualizado_en = NOW() WHERE id = $1 AND activo = TRUE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate contacto: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entidad: "contacto", ID: id}
	}

	return nil
}
