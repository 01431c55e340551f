package domain

import (
	"strings"
	"time"
)

// TipoTB clasificación clínica del caso índice.
type TipoTB string

const (
	TBPulmonar      TipoTB = "Pulmonar"
	TBExtrapulmonar TipoTB = "Extrapulmonar"
	TBMiliar        TipoTB = "Miliar"
	TBMeningea      TipoTB = "Meningea"
)

// CasoIndice paciente diagnosticado desde el cual se origina el censo de
// contactos (tabla casos_indice).
type CasoIndice struct {
	ID                int64      `db:"id"`
	CodigoCaso        string     `db:"codigo_caso"` // único, formato CASO-xxxxxxxx (8 hex)
	Nombres           string     `db:"nombres"`
	Apellidos         string     `db:"apellidos"`
	DocumentoIdentidad string    `db:"documento_identidad"`
	TipoTB            TipoTB     `db:"tipo_tb"`
	FechaDiagnostico  time.Time  `db:"fecha_diagnostico"`
	FechaNacimiento   *time.Time `db:"fecha_nacimiento"`
	EstablecimientoID int64      `db:"establecimiento_id"`
	UsuarioRegistroID int64      `db:"usuario_registro_id"`
	Activo            bool       `db:"activo"` // baja lógica, nunca se elimina la fila
	CreadoEn          time.Time  `db:"creado_en"`
	ActualizadoEn     time.Time  `db:"actualizado_en"`
}

// PrefijoCodigoCaso prefijo fijo del código de caso.
const PrefijoCodigoCaso = "CASO-"

// CodigoCasoValido verifica el formato CASO- + 8 caracteres hex.
func CodigoCasoValido(codigo string) bool {
	if !strings.HasPrefix(codigo, PrefijoCodigoCaso) {
		return false
	}
	hex := strings.TrimPrefix(codigo, PrefijoCodigoCaso)
	if len(hex) != 8 {
		return false
	}
	for _, c := range hex {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

var tiposTBValidos = map[TipoTB]bool{
	TBPulmonar:      true,
	TBExtrapulmonar: true,
	TBMiliar:        true,
	TBMeningea:      true,
}

// Validate aplica las invariantes de campo del caso índice. hoy se recibe
// explícito para que la regla sea determinista.
func (c *CasoIndice) Validate(hoy time.Time) error {
	if !CodigoCasoValido(c.CodigoCaso) {
		return NewValidationError("caso_indice", "codigo_caso", "must match CASO- plus 8 hex chars")
	}
	if !tiposTBValidos[c.TipoTB] {
		return NewValidationError("caso_indice", "tipo_tb", "unknown value: "+string(c.TipoTB))
	}
	if c.FechaDiagnostico.IsZero() {
		return NewValidationError("caso_indice", "fecha_diagnostico", "required")
	}
	if EsPosterior(c.FechaDiagnostico, hoy) {
		return NewValidationError("caso_indice", "fecha_diagnostico", "must not be after today")
	}
	if c.FechaNacimiento != nil && EsPosterior(*c.FechaNacimiento, c.FechaDiagnostico) {
		return NewValidationError("caso_indice", "fecha_nacimiento", "must not be after fecha_diagnostico")
	}
	if c.EstablecimientoID == 0 {
		return NewValidationError("caso_indice", "establecimiento_id", "required")
	}
	return nil
}
