package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// VisitasRepository repositorio de visitas domiciliarias
// (tabla visitas_domiciliarias).
type VisitasRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVisitasRepository crea el repositorio de visitas.
func NewVisitasRepository(db *sql.DB, logger *zap.Logger) *VisitasRepository {
	return &VisitasRepository{db: db, logger: logger}
}

const columnasVisita = `
	id, contacto_id, caso_indice_id, fecha_visita, resultado_visita,
	motivo_no_realizada, observaciones, creado_en`

func scanVisita(row interface{ Scan(...interface{}) error }) (*domain.VisitaDomiciliaria, error) {
	var v domain.VisitaDomiciliaria
	var contactoID, casoID sql.NullInt64
	var motivo, observaciones sql.NullString
	err := row.Scan(
		&v.ID, &contactoID, &casoID, &v.FechaVisita, &v.ResultadoVisita,
		&motivo, &observaciones, &v.CreadoEn,
	)
	if err != nil {
		return nil, err
	}
	if contactoID.Valid {
		v.ContactoID = &contactoID.Int64
	}
	if casoID.Valid {
		v.CasoIndiceID = &casoID.Int64
	}
	if motivo.Valid {
		v.MotivoNoRealizada = &motivo.String
	}
	if observaciones.Valid {
		v.Observaciones = &observaciones.String
	}
	return &v, nil
}

// CrearVisita valida e inserta una visita. La exclusión mutua entre
// contacto_id y caso_indice_id se rechaza antes de tocar la base.
func (r *VisitasRepository) CrearVisita(ctx context.Context, visita *domain.VisitaDomiciliaria, hoy time.Time) error {
	if visita == nil {
		return fmt.Errorf("visita is required")
	}
	if err := visita.Validate(hoy); err != nil {
		return err
	}

	query := `
		INSERT INTO visitas_domiciliarias (
			contacto_id, caso_indice_id, fecha_visita, resultado_visita,
			motivo_no_realizada, observaciones, creado_en
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, creado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		visita.ContactoID, visita.CasoIndiceID, visita.FechaVisita,
		visita.ResultadoVisita, visita.MotivoNoRealizada, visita.Observaciones,
	).Scan(&visita.ID, &visita.CreadoEn)
	if err != nil {
		return fmt.Errorf("failed to create visita: %w", err)
	}

	return nil
}

// ListVisitasDeFamilia visitas registradas sobre el caso índice o sobre
// cualquiera de los contactos dados, ordenadas por fecha.
func (r *VisitasRepository) ListVisitasDeFamilia(ctx context.Context, casoID int64, contactoIDs []int64) ([]*domain.VisitaDomiciliaria, error) {
	query := `
		SELECT` + columnasVisita + `
		FROM visitas_domiciliarias
		WHERE caso_indice_id = $1 OR contacto_id = ANY($2)
		ORDER BY fecha_visita, id
	`

	rows, err := r.db.QueryContext(ctx, query, casoID, pq.Array(contactoIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list visitas: %w", err)
	}
	defer rows.Close()

	var visitas []*domain.VisitaDomiciliaria
	for rows.Next() {
		v, err := scanVisita(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visita: %w", err)
		}
		visitas = append(visitas, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visitas: %w", err)
	}

	return visitas, nil
}
