// Package report genera el reporte Excel de alertas de cumplimiento que
// el equipo del programa descarga para las reuniones de revisión.
package report

import (
	"bytes"
	"fmt"
	"time"

	"tbc-seguimiento/internal/domain"

	"github.com/xuri/excelize/v2"
)

// AlertasExportHeader columnas del reporte de alertas.
var AlertasExportHeader = []string{
	"ID",
	"Tipo",
	"Estado",
	"Severidad",
	"Descripción",
	"Contacto ID",
	"Caso índice ID",
	"Fecha alerta",
	"Fecha resolución",
	"Observaciones",
}

// GenerateAlertasExport genera el archivo Excel con las alertas dadas.
// Con data vacía produce solo el encabezado.
func GenerateAlertasExport(alertas []*domain.Alerta) ([]byte, error) {
	f := excelize.NewFile()
	// no defer Close(): WriteTo necesita el archivo abierto

	sheetName := "Alertas"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range AlertasExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		8,  // ID
		22, // Tipo
		12, // Estado
		10, // Severidad
		45, // Descripción
		12, // Contacto ID
		14, // Caso índice ID
		14, // Fecha alerta
		16, // Fecha resolución
		35, // Observaciones
	}
	for i := range AlertasExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	for rowIdx, a := range alertas {
		row := rowIdx + 2
		values := []interface{}{
			a.ID,
			string(a.TipoAlerta),
			string(a.Estado),
			string(a.Severidad),
			a.Descripcion,
			int64Cell(a.ContactoID),
			int64Cell(a.CasoIndiceID),
			a.FechaAlerta.Format("2006-01-02"),
			fechaCell(a.FechaResolucion),
			strCell(a.Observaciones),
		}
		for colIdx, value := range values {
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func int64Cell(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func fechaCell(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}

func strCell(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
