package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockCasosDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *CasosRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewCasosRepository(db, logger)

	return db, mock, repo
}

func TestGenerarCodigoCaso(t *testing.T) {
	codigo := GenerarCodigoCaso()

	assert.True(t, domain.CodigoCasoValido(codigo), "generated code %q should be valid", codigo)
	assert.NotEqual(t, codigo, GenerarCodigoCaso())
}

func TestCrearCaso_GeneraCodigo(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()
	hoy := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	caso := &domain.CasoIndice{
		Nombres:            "María",
		Apellidos:          "Quispe",
		DocumentoIdentidad: "45678912",
		TipoTB:             domain.TBPulmonar,
		FechaDiagnostico:   hoy.AddDate(0, -1, 0),
		EstablecimientoID:  3,
		UsuarioRegistroID:  9,
	}

	rows := sqlmock.NewRows([]string{"id", "creado_en", "actualizado_en"}).
		AddRow(int64(1), now, now)

	mock.ExpectQuery(`INSERT INTO casos_indice`).
		WillReturnRows(rows)

	err := repo.CrearCaso(ctx, caso, hoy)

	require.NoError(t, err)
	assert.Equal(t, int64(1), caso.ID)
	assert.True(t, caso.Activo)
	assert.True(t, domain.CodigoCasoValido(caso.CodigoCaso))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCrearCaso_DiagnosticoFuturo(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()
	hoy := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	caso := &domain.CasoIndice{
		Nombres:            "María",
		Apellidos:          "Quispe",
		DocumentoIdentidad: "45678912",
		TipoTB:             domain.TBPulmonar,
		FechaDiagnostico:   hoy.AddDate(0, 0, 1),
		EstablecimientoID:  3,
		UsuarioRegistroID:  9,
	}

	err := repo.CrearCaso(ctx, caso, hoy)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCaso_Success(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "codigo_caso", "nombres", "apellidos", "documento_identidad", "tipo_tb",
		"fecha_diagnostico", "fecha_nacimiento", "establecimiento_id",
		"usuario_registro_id", "activo", "creado_en", "actualizado_en",
	}).AddRow(
		int64(1), "CASO-1a2b3c4d", "María", "Quispe", "45678912", "Pulmonar",
		now.AddDate(0, -1, 0), nil, int64(3),
		int64(9), true, now, now,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	caso, err := repo.GetCaso(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, "CASO-1a2b3c4d", caso.CodigoCaso)
	assert.Equal(t, domain.TBPulmonar, caso.TipoTB)
	assert.Nil(t, caso.FechaNacimiento)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCaso_NotFound(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectQuery(`SELECT`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	caso, err := repo.GetCaso(ctx, 999)

	assert.Error(t, err)
	assert.Nil(t, caso)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCasosActivosIDs(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)).AddRow(int64(8))
	mock.ExpectQuery(`SELECT id FROM casos_indice`).
		WillReturnRows(rows)

	ids, err := repo.ListCasosActivosIDs(ctx)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 8}, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDesactivarCaso_Success(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec(`UPDATE casos_indice`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DesactivarCaso(ctx, 1)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDesactivarCaso_NotFound(t *testing.T) {
	db, mock, repo := setupMockCasosDB(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec(`UPDATE casos_indice`).
		WithArgs(int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DesactivarCaso(ctx, 999)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, mock.ExpectationsWereMet())
}
