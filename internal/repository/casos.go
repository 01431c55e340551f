package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CasosRepository repositorio de casos índice (tabla casos_indice).
type CasosRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCasosRepository crea el repositorio de casos.
func NewCasosRepository(db *sql.DB, logger *zap.Logger) *CasosRepository {
	return &CasosRepository{db: db, logger: logger}
}

// GenerarCodigoCaso genera un código único CASO- + 8 hex.
func GenerarCodigoCaso() string {
	return domain.PrefijoCodigoCaso + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

const columnasCaso = `
	id, codigo_caso, nombres, apellidos, documento_identidad, tipo_tb,
	fecha_diagnostico, fecha_nacimiento, establecimiento_id,
	usuario_registro_id, activo, creado_en, actualizado_en`

func scanCaso(row interface{ Scan(...interface{}) error }) (*domain.CasoIndice, error) {
	var c domain.CasoIndice
	var fechaNacimiento sql.NullTime
	err := row.Scan(
		&c.ID, &c.CodigoCaso, &c.Nombres, &c.Apellidos, &c.DocumentoIdentidad,
		&c.TipoTB, &c.FechaDiagnostico, &fechaNacimiento, &c.EstablecimientoID,
		&c.UsuarioRegistroID, &c.Activo, &c.CreadoEn, &c.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	if fechaNacimiento.Valid {
		c.FechaNacimiento = &fechaNacimiento.Time
	}
	return &c, nil
}

// CrearCaso valida e inserta un caso índice. Si el código viene vacío se
// genera uno.
func (r *CasosRepository) CrearCaso(ctx context.Context, caso *domain.CasoIndice, hoy time.Time) error {
	if caso == nil {
		return fmt.Errorf("caso is required")
	}
	if caso.CodigoCaso == "" {
		caso.CodigoCaso = GenerarCodigoCaso()
	}
	caso.Activo = true
	if err := caso.Validate(hoy); err != nil {
		return err
	}

	query := `
		INSERT INTO casos_indice (
			codigo_caso, nombres, apellidos, documento_identidad, tipo_tb,
			fecha_diagnostico, fecha_nacimiento, establecimiento_id,
			usuario_registro_id, activo, creado_en, actualizado_en
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, creado_en, actualizado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		caso.CodigoCaso, caso.Nombres, caso.Apellidos, caso.DocumentoIdentidad,
		caso.TipoTB, caso.FechaDiagnostico, caso.FechaNacimiento,
		caso.EstablecimientoID, caso.UsuarioRegistroID, caso.Activo,
	).Scan(&caso.ID, &caso.CreadoEn, &caso.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("failed to create caso indice: %w", err)
	}

	return nil
}

// GetCaso obtiene un caso índice por id.
func (r *CasosRepository) GetCaso(ctx context.Context, id int64) (*domain.CasoIndice, error) {
	query := `SELECT` + columnasCaso + ` FROM casos_indice WHERE id = $1`

	caso, err := scanCaso(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "caso_indice", ID: id}
		}
		return nil, fmt.Errorf("failed to get caso indice: %w", err)
	}

	return caso, nil
}

// ListCasosActivosIDs ids de todos los casos activos, unidad de trabajo
// del lote de evaluación.
func (r *CasosRepository) ListCasosActivosIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM casos_indice WHERE activo = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active casos: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan caso id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate casos: %w", err)
	}

	return ids, nil
}

// DesactivarCaso baja lógica: la fila nunca se elimina.
func (r *CasosRepository) DesactivarCaso(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE casos_indice SET activo = FALSE, actualizado_en = NOW() WHERE id = $1 AND activo = TRUE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate caso indice: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &domain.NotFoundError{Entidad: "caso_indice", ID: id}
	}

	return nil
}
