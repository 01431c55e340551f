package report

import (
	"bytes"
	"testing"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateAlertasExport(t *testing.T) {
	contactoID := int64(7)
	data, err := GenerateAlertasExport([]*domain.Alerta{
		{
			ID:          100,
			ContactoID:  &contactoID,
			TipoAlerta:  domain.AlertaControlNoRealizado,
			Estado:      domain.AlertaActiva,
			Severidad:   domain.SeveridadAlta,
			Descripcion: "control vencido hace 20 días",
			FechaAlerta: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alertas")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Severidad", rows[0][3])
	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "Control no realizado", rows[1][1])
	assert.Equal(t, "Alta", rows[1][3])
	assert.Equal(t, "2024-06-15", rows[1][7])
}

func TestGenerateAlertasExport_SoloEncabezado(t *testing.T) {
	data, err := GenerateAlertasExport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Alertas")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, AlertasExportHeader, rows[0])
}
