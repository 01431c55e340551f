package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"tbc-seguimiento/internal/domain"
)

var hoy = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func fecha(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func grafoBase() *domain.Grafo {
	return &domain.Grafo{
		Caso: &domain.CasoIndice{
			ID:                1,
			CodigoCaso:        "CASO-0a1b2c3d",
			TipoTB:            domain.TBPulmonar,
			FechaDiagnostico:  fecha(2024, 1, 10),
			EstablecimientoID: 7,
			Activo:            true,
		},
		Contactos: []*domain.Contacto{
			{ID: 10, CasoIndiceID: 1, TipoContacto: domain.ContactoIntradomiciliario, FechaRegistro: fecha(2024, 1, 12), Activo: true},
		},
		Examenes:  map[int64][]*domain.ExamenContacto{},
		Controles: map[int64][]*domain.ControlContacto{},
		Tpts:      map[int64][]*domain.TptIndicacion{},
	}
}

func nuevoEvaluador() *Evaluador {
	return NewEvaluador(UmbralesPorDefecto(), zap.NewNop())
}

func TestEvaluar_GrafoSinBrechas(t *testing.T) {
	hallazgos := nuevoEvaluador().Evaluar(hoy, grafoBase())
	assert.Empty(t, hallazgos)
}

// Escenario A del diseño: control programado 20 días atrás → hallazgo
// "Control no realizado" con severidad Alta.
func TestEvaluar_ControlVencido20Dias(t *testing.T) {
	g := grafoBase()
	g.Controles[10] = []*domain.ControlContacto{
		{ID: 100, ContactoID: 10, NumeroControl: 1, Estado: domain.ControlProgramado, FechaProgramada: fecha(2024, 5, 26)},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 1)
	h := hallazgos[0]
	assert.Equal(t, domain.AlertaControlNoRealizado, h.Tipo)
	assert.Equal(t, domain.SeveridadAlta, h.Severidad)
	assert.Equal(t, int64(10), *h.Referencia.ContactoID)
	assert.Equal(t, int64(100), *h.Referencia.ControlContactoID)
	assert.Equal(t, hoy, h.DetectadoEn)
}

func TestEvaluar_ControlVencido_UmbralDeSeveridad(t *testing.T) {
	casos := []struct {
		nombre     string
		programada time.Time
		severidad  domain.Severidad
	}{
		{"15 días exactos sigue Media", fecha(2024, 5, 31), domain.SeveridadMedia},
		{"16 días escala a Alta", fecha(2024, 5, 30), domain.SeveridadAlta},
		{"1 día de atraso Media", fecha(2024, 6, 14), domain.SeveridadMedia},
	}

	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			g := grafoBase()
			g.Controles[10] = []*domain.ControlContacto{
				{ID: 100, ContactoID: 10, NumeroControl: 1, Estado: domain.ControlProgramado, FechaProgramada: tc.programada},
			}
			hallazgos := nuevoEvaluador().Evaluar(hoy, g)
			require.Len(t, hallazgos, 1)
			assert.Equal(t, tc.severidad, hallazgos[0].Severidad)
		})
	}
}

func TestEvaluar_ControlProgramadoHoyNoEsVencido(t *testing.T) {
	g := grafoBase()
	g.Controles[10] = []*domain.ControlContacto{
		{ID: 100, ContactoID: 10, NumeroControl: 1, Estado: domain.ControlProgramado, FechaProgramada: hoy},
	}
	assert.Empty(t, nuevoEvaluador().Evaluar(hoy, g))
}

func TestEvaluar_VariosControlesVencidos_UnHallazgoCadaUno(t *testing.T) {
	g := grafoBase()
	g.Controles[10] = []*domain.ControlContacto{
		{ID: 100, ContactoID: 10, NumeroControl: 1, Estado: domain.ControlProgramado, FechaProgramada: fecha(2024, 4, 1)},
		{ID: 101, ContactoID: 10, NumeroControl: 2, Estado: domain.ControlProgramado, FechaProgramada: fecha(2024, 5, 1)},
		{ID: 102, ContactoID: 10, NumeroControl: 3, Estado: domain.ControlRealizado, FechaProgramada: fecha(2024, 5, 1)},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 2)
	assert.NotEqual(t, hallazgos[0].Clave(), hallazgos[1].Clave())
}

// Escenario B del diseño: indicación de TPT con 45 días sin inicio →
// hallazgo "TPT no iniciada" con severidad Alta.
func TestEvaluar_TptNoIniciada45Dias(t *testing.T) {
	g := grafoBase()
	g.Tpts[10] = []*domain.TptIndicacion{
		{ID: 200, ContactoID: 10, EsquemaTptID: 3, Estado: domain.TptIndicado, FechaIndicacion: fecha(2024, 5, 1)},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 1)
	h := hallazgos[0]
	assert.Equal(t, domain.AlertaTptNoIniciada, h.Tipo)
	assert.Equal(t, domain.SeveridadAlta, h.Severidad)
	assert.Equal(t, int64(200), *h.Referencia.TptIndicacionID)
}

func TestEvaluar_TptNoIniciada_UmbralDe30Dias(t *testing.T) {
	g := grafoBase()
	// 30 días exactos: todavía dentro del plazo
	g.Tpts[10] = []*domain.TptIndicacion{
		{ID: 200, ContactoID: 10, EsquemaTptID: 3, Estado: domain.TptIndicado, FechaIndicacion: fecha(2024, 5, 16)},
	}
	assert.Empty(t, nuevoEvaluador().Evaluar(hoy, g))

	// 31 días: hallazgo
	g.Tpts[10][0].FechaIndicacion = fecha(2024, 5, 15)
	assert.Len(t, nuevoEvaluador().Evaluar(hoy, g), 1)
}

func TestEvaluar_TptEnCursoNoEmite(t *testing.T) {
	g := grafoBase()
	inicio := fecha(2024, 5, 1)
	g.Tpts[10] = []*domain.TptIndicacion{
		{ID: 200, ContactoID: 10, EsquemaTptID: 3, Estado: domain.TptEnCurso, FechaIndicacion: fecha(2024, 4, 1), FechaInicio: &inicio},
	}
	assert.Empty(t, nuevoEvaluador().Evaluar(hoy, g))
}

func TestEvaluar_TptAbandonada(t *testing.T) {
	g := grafoBase()
	g.Tpts[10] = []*domain.TptIndicacion{
		{ID: 200, ContactoID: 10, EsquemaTptID: 3, Estado: domain.TptAbandonado, FechaIndicacion: fecha(2024, 2, 1)},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 1)
	assert.Equal(t, domain.AlertaTptAbandonada, hallazgos[0].Tipo)
	assert.Equal(t, domain.SeveridadCritica, hallazgos[0].Severidad)
}

func TestEvaluar_VisitaNoRealizada(t *testing.T) {
	g := grafoBase()
	g.Visitas = []*domain.VisitaDomiciliaria{
		{ID: 300, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 1), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("domicilio cerrado")},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 1)
	assert.Equal(t, domain.AlertaVisitaNoRealizada, hallazgos[0].Tipo)
	assert.Equal(t, domain.SeveridadMedia, hallazgos[0].Severidad)
	assert.Equal(t, int64(300), *hallazgos[0].Referencia.VisitaDomiciliariaID)
}

func TestEvaluar_VisitaCerradaPorVisitaPosterior(t *testing.T) {
	g := grafoBase()
	g.Visitas = []*domain.VisitaDomiciliaria{
		{ID: 300, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 1), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("domicilio cerrado")},
		{ID: 301, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 8), ResultadoVisita: domain.VisitaRealizada},
	}

	assert.Empty(t, nuevoEvaluador().Evaluar(hoy, g))
}

func TestEvaluar_VisitaPosteriorTambienFallidaNoCierra(t *testing.T) {
	g := grafoBase()
	g.Visitas = []*domain.VisitaDomiciliaria{
		{ID: 300, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 1), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("domicilio cerrado")},
		{ID: 301, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 8), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("paciente ausente")},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)
	assert.Len(t, hallazgos, 2)
}

func TestEvaluar_VisitaDeOtroContactoNoCierra(t *testing.T) {
	g := grafoBase()
	g.Contactos = append(g.Contactos, &domain.Contacto{ID: 11, CasoIndiceID: 1, TipoContacto: domain.ContactoExtradomiciliario, FechaRegistro: fecha(2024, 1, 12), Activo: true})
	g.Visitas = []*domain.VisitaDomiciliaria{
		{ID: 300, ContactoID: int64Ptr(10), FechaVisita: fecha(2024, 6, 1), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("domicilio cerrado")},
		{ID: 301, ContactoID: int64Ptr(11), FechaVisita: fecha(2024, 6, 8), ResultadoVisita: domain.VisitaRealizada},
	}

	assert.Len(t, nuevoEvaluador().Evaluar(hoy, g), 1)
}

func TestEvaluar_VisitaDeCasoIndice(t *testing.T) {
	g := grafoBase()
	g.Visitas = []*domain.VisitaDomiciliaria{
		{ID: 300, CasoIndiceID: int64Ptr(1), FechaVisita: fecha(2024, 6, 1), ResultadoVisita: domain.VisitaNoRealizada, MotivoNoRealizada: strPtr("dirección inexistente")},
	}

	hallazgos := nuevoEvaluador().Evaluar(hoy, g)

	require.Len(t, hallazgos, 1)
	assert.Equal(t, int64(1), *hallazgos[0].Referencia.CasoIndiceID)
	assert.Nil(t, hallazgos[0].Referencia.ContactoID)
}

// Mismo grafo y misma fecha ⇒ mismo conjunto de hallazgos.
func TestEvaluar_Idempotente(t *testing.T) {
	g := grafoBase()
	g.Controles[10] = []*domain.ControlContacto{
		{ID: 100, ContactoID: 10, NumeroControl: 1, Estado: domain.ControlProgramado, FechaProgramada: fecha(2024, 5, 1)},
	}
	g.Tpts[10] = []*domain.TptIndicacion{
		{ID: 200, ContactoID: 10, EsquemaTptID: 3, Estado: domain.TptAbandonado, FechaIndicacion: fecha(2024, 2, 1)},
	}

	e := nuevoEvaluador()
	primera := e.Evaluar(hoy, g)
	segunda := e.Evaluar(hoy, g)

	require.Equal(t, len(primera), len(segunda))
	assert.Equal(t, primera, segunda)
}
