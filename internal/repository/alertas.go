package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// AlertasRepository repositorio de alertas de cumplimiento (tabla alertas).
//
// La tabla lleva una columna clave_conciliacion con un índice único
// parcial sobre las filas en estado Activa / En revisión; esa clave es la
// que permite al conciliador hacer upsert sin bloqueo de aplicación.
type AlertasRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertasRepository crea el repositorio de alertas.
func NewAlertasRepository(db *sql.DB, logger *zap.Logger) *AlertasRepository {
	return &AlertasRepository{db: db, logger: logger}
}

// AlertaFilters condiciones de búsqueda de alertas.
type AlertaFilters struct {
	Estado       *domain.EstadoAlerta
	Estados      []domain.EstadoAlerta
	Severidad    *domain.Severidad
	TipoAlerta   *domain.TipoAlerta
	ContactoID   *int64
	CasoIndiceID *int64
	Desde        *time.Time // fecha_alerta >= Desde
	Hasta        *time.Time // fecha_alerta <= Hasta
}

const columnasAlerta = `
	id, contacto_id, caso_indice_id, tpt_indicacion_id, control_contacto_id,
	visita_domiciliaria_id, tipo_alerta, estado, severidad, descripcion,
	fecha_alerta, fecha_resolucion, usuario_resuelve_id, observaciones,
	creado_en, actualizado_en`

func scanAlerta(row interface{ Scan(...interface{}) error }) (*domain.Alerta, error) {
	var a domain.Alerta
	var contactoID, casoID, tptID, controlID, visitaID, usuarioID sql.NullInt64
	var fechaResolucion sql.NullTime
	var observaciones sql.NullString
	err := row.Scan(
		&a.ID, &contactoID, &casoID, &tptID, &controlID, &visitaID,
		&a.TipoAlerta, &a.Estado, &a.Severidad, &a.Descripcion,
		&a.FechaAlerta, &fechaResolucion, &usuarioID, &observaciones,
		&a.CreadoEn, &a.ActualizadoEn,
	)
	if err != nil {
		return nil, err
	}
	if contactoID.Valid {
		a.ContactoID = &contactoID.Int64
	}
	if casoID.Valid {
		a.CasoIndiceID = &casoID.Int64
	}
	if tptID.Valid {
		a.TptIndicacionID = &tptID.Int64
	}
	if controlID.Valid {
		a.ControlContactoID = &controlID.Int64
	}
	if visitaID.Valid {
		a.VisitaDomiciliariaID = &visitaID.Int64
	}
	if fechaResolucion.Valid {
		a.FechaResolucion = &fechaResolucion.Time
	}
	if usuarioID.Valid {
		a.UsuarioResuelveID = &usuarioID.Int64
	}
	if observaciones.Valid {
		a.Observaciones = &observaciones.String
	}
	return &a, nil
}

// CrearAlerta valida e inserta una alerta nueva. Una violación del índice
// único de clave_conciliacion se devuelve como domain.ErrConflict para
// que el conciliador caiga al camino de actualización.
func (r *AlertasRepository) CrearAlerta(ctx context.Context, alerta *domain.Alerta) error {
	if alerta == nil {
		return fmt.Errorf("alerta is required")
	}
	if err := alerta.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO alertas (
			contacto_id, caso_indice_id, tpt_indicacion_id, control_contacto_id,
			visita_domiciliaria_id, tipo_alerta, estado, severidad, descripcion,
			fecha_alerta, clave_conciliacion, creado_en, actualizado_en
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, creado_en, actualizado_en
	`

	err := r.db.QueryRowContext(ctx, query,
		alerta.ContactoID, alerta.CasoIndiceID, alerta.TptIndicacionID,
		alerta.ControlContactoID, alerta.VisitaDomiciliariaID,
		alerta.TipoAlerta, alerta.Estado, alerta.Severidad, alerta.Descripcion,
		alerta.FechaAlerta, alerta.ClaveConciliacion(),
	).Scan(&alerta.ID, &alerta.CreadoEn, &alerta.ActualizadoEn)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("alerta already exists for key %s: %w", alerta.ClaveConciliacion(), domain.ErrConflict)
		}
		return fmt.Errorf("failed to create alerta: %w", err)
	}

	return nil
}

// GetAlerta obtiene una alerta por id.
func (r *AlertasRepository) GetAlerta(ctx context.Context, id int64) (*domain.Alerta, error) {
	query := `SELECT` + columnasAlerta + ` FROM alertas WHERE id = $1`

	alerta, err := scanAlerta(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &domain.NotFoundError{Entidad: "alerta", ID: id}
		}
		return nil, fmt.Errorf("failed to get alerta: %w", err)
	}

	return alerta, nil
}

// GetVigentePorClave alerta Activa o En revisión para la clave de
// conciliación dada; nil cuando no hay ninguna.
func (r *AlertasRepository) GetVigentePorClave(ctx context.Context, clave string) (*domain.Alerta, error) {
	query := `
		SELECT` + columnasAlerta + `
		FROM alertas
		WHERE clave_conciliacion = $1
		  AND estado IN ('Activa', 'En revisión')
		ORDER BY id DESC
		LIMIT 1
	`

	alerta, err := scanAlerta(r.db.QueryRowContext(ctx, query, clave))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alerta by key: %w", err)
	}

	return alerta, nil
}

// EscalarSeveridad sube la severidad de una alerta. La guarda de rango en
// el WHERE hace la escalación monótona también bajo corridas concurrentes:
// nunca se baja una severidad ya escalada.
func (r *AlertasRepository) EscalarSeveridad(ctx context.Context, id int64, severidad domain.Severidad) error {
	query := `
		UPDATE alertas
		SET severidad = $1,
		    actualizado_en = NOW()
		WHERE id = $2
		  AND estado IN ('Activa', 'En revisión')
		  AND CASE severidad
		        WHEN 'Baja' THEN 1
		        WHEN 'Media' THEN 2
		        WHEN 'Alta' THEN 3
		        WHEN 'Crítica' THEN 4
		      END < $3
	`

	_, err := r.db.ExecContext(ctx, query, severidad, id, severidad.Rango())
	if err != nil {
		return fmt.Errorf("failed to escalate alerta severity: %w", err)
	}

	return nil
}

// MarcarEnRevision transición Activa → En revisión.
func (r *AlertasRepository) MarcarEnRevision(ctx context.Context, id int64) error {
	return r.transicionAlerta(ctx, id, domain.AlertaEnRevision, []domain.EstadoAlerta{domain.AlertaActiva}, nil, nil, nil)
}

// ResolverAlerta transición explícita a Resuelta, disparada por un usuario
// desde fuera del conciliador. Solo se valida la forma: el estado actual
// debe ser Activa o En revisión.
func (r *AlertasRepository) ResolverAlerta(ctx context.Context, id int64, usuarioID int64, observaciones string, hoy time.Time) error {
	if usuarioID == 0 {
		return domain.NewValidationError("alerta", "usuario_resuelve_id", "required to resolve")
	}
	fecha := domain.SoloFecha(hoy)
	return r.transicionAlerta(ctx, id, domain.AlertaResuelta,
		[]domain.EstadoAlerta{domain.AlertaActiva, domain.AlertaEnRevision},
		&fecha, &usuarioID, &observaciones)
}

// DescartarAlerta transición a Descartada (falsa alarma, dato corregido).
func (r *AlertasRepository) DescartarAlerta(ctx context.Context, id int64, usuarioID int64, observaciones string) error {
	return r.transicionAlerta(ctx, id, domain.AlertaDescartada,
		[]domain.EstadoAlerta{domain.AlertaActiva, domain.AlertaEnRevision},
		nil, &usuarioID, &observaciones)
}

func (r *AlertasRepository) transicionAlerta(ctx context.Context, id int64, hacia domain.EstadoAlerta, desde []domain.EstadoAlerta, fechaResolucion *time.Time, usuarioID *int64, observaciones *string) error {
	estadosPermitidos := make([]string, len(desde))
	for i, e := range desde {
		estadosPermitidos[i] = string(e)
	}

	query := `
		UPDATE alertas
		SET estado = $1,
		    fecha_resolucion = COALESCE($2, fecha_resolucion),
		    usuario_resuelve_id = COALESCE($3, usuario_resuelve_id),
		    observaciones = COALESCE($4, observaciones),
		    actualizado_en = NOW()
		WHERE id = $5
		  AND estado = ANY($6)
	`

	result, err := r.db.ExecContext(ctx, query,
		hacia, fechaResolucion, usuarioID, observaciones, id, pq.Array(estadosPermitidos),
	)
	if err != nil {
		return fmt.Errorf("failed to update alerta state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// distinguir inexistente de transición inválida
	var estadoActual string
	err = r.db.QueryRowContext(ctx, `SELECT estado FROM alertas WHERE id = $1`, id).Scan(&estadoActual)
	if err != nil {
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Entidad: "alerta", ID: id}
		}
		return fmt.Errorf("failed to check alerta state: %w", err)
	}

	return &domain.TransitionError{
		Entidad: "alerta",
		Desde:   estadoActual,
		Hacia:   string(hacia),
		Motivo:  "only allowed from " + strings.Join(estadosPermitidos, " or "),
	}
}

// ListAlertas búsqueda con filtros y paginación.
func (r *AlertasRepository) ListAlertas(ctx context.Context, filters AlertaFilters, page, size int) ([]*domain.Alerta, int, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	argN := 1

	add := func(cond string, value interface{}) {
		where = append(where, fmt.Sprintf(cond, argN))
		args = append(args, value)
		argN++
	}

	if filters.Estado != nil {
		add("estado = $%d", *filters.Estado)
	}
	if len(filters.Estados) > 0 {
		estados := make([]string, len(filters.Estados))
		for i, e := range filters.Estados {
			estados[i] = string(e)
		}
		add("estado = ANY($%d)", pq.Array(estados))
	}
	if filters.Severidad != nil {
		add("severidad = $%d", *filters.Severidad)
	}
	if filters.TipoAlerta != nil {
		add("tipo_alerta = $%d", *filters.TipoAlerta)
	}
	if filters.ContactoID != nil {
		add("contacto_id = $%d", *filters.ContactoID)
	}
	if filters.CasoIndiceID != nil {
		add("caso_indice_id = $%d", *filters.CasoIndiceID)
	}
	if filters.Desde != nil {
		add("fecha_alerta >= $%d", *filters.Desde)
	}
	if filters.Hasta != nil {
		add("fecha_alerta <= $%d", *filters.Hasta)
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")

	var total int
	queryCount := fmt.Sprintf(`SELECT COUNT(*) FROM alertas %s`, whereClause)
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alertas: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
		SELECT %s
		FROM alertas
		%s
		ORDER BY fecha_alerta DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, columnasAlerta, whereClause, argN, argN+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alertas: %w", err)
	}
	defer rows.Close()

	alertas := []*domain.Alerta{}
	for rows.Next() {
		a, err := scanAlerta(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alerta: %w", err)
		}
		alertas = append(alertas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate alertas: %w", err)
	}

	return alertas, total, nil
}

// ContarVigentesPorSeveridad conteo de alertas Activa/En revisión de una
// familia de caso, agrupado por severidad; alimenta el resumen en cache.
func (r *AlertasRepository) ContarVigentesPorSeveridad(ctx context.Context, casoID int64, contactoIDs []int64) (map[domain.Severidad]int, error) {
	query := `
		SELECT severidad, COUNT(*)
		FROM alertas
		WHERE estado IN ('Activa', 'En revisión')
		  AND (caso_indice_id = $1 OR contacto_id = ANY($2))
		GROUP BY severidad
	`

	rows, err := r.db.QueryContext(ctx, query, casoID, pq.Array(contactoIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count alertas: %w", err)
	}
	defer rows.Close()

	conteos := map[domain.Severidad]int{}
	for rows.Next() {
		var severidad domain.Severidad
		var n int
		if err := rows.Scan(&severidad, &n); err != nil {
			return nil, fmt.Errorf("failed to scan alerta count: %w", err)
		}
		conteos[severidad] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerta counts: %w", err)
	}

	return conteos, nil
}
