package repository

import (
	"context"
	"fmt"

	"tbc-seguimiento/internal/domain"

	"go.uber.org/zap"
)

// GrafoRepository arma la instantánea de una familia de caso a partir de
// los repositorios por entidad. El evaluador solo ve el domain.Grafo
// resultante, nunca la base.
type GrafoRepository struct {
	casos     *CasosRepository
	contactos *ContactosRepository
	examenes  *ExamenesRepository
	controles *ControlesRepository
	tpt       *TptRepository
	visitas   *VisitasRepository
	logger    *zap.Logger
}

// NewGrafoRepository crea el cargador de grafos de familia.
func NewGrafoRepository(
	casos *CasosRepository,
	contactos *ContactosRepository,
	examenes *ExamenesRepository,
	controles *ControlesRepository,
	tpt *TptRepository,
	visitas *VisitasRepository,
	logger *zap.Logger,
) *GrafoRepository {
	return &GrafoRepository{
		casos:     casos,
		contactos: contactos,
		examenes:  examenes,
		controles: controles,
		tpt:       tpt,
		visitas:   visitas,
		logger:    logger,
	}
}

// CargarGrafo carga el caso índice, sus contactos activos y todas las
// entidades hijas de la familia.
func (r *GrafoRepository) CargarGrafo(ctx context.Context, casoID int64) (*domain.Grafo, error) {
	caso, err := r.casos.GetCaso(ctx, casoID)
	if err != nil {
		return nil, err
	}

	contactos, err := r.contactos.ListContactosByCaso(ctx, casoID)
	if err != nil {
		return nil, err
	}

	g := &domain.Grafo{
		Caso:      caso,
		Contactos: contactos,
		Examenes:  make(map[int64][]*domain.ExamenContacto, len(contactos)),
		Controles: make(map[int64][]*domain.ControlContacto, len(contactos)),
		Tpts:      make(map[int64][]*domain.TptIndicacion, len(contactos)),
	}

	contactoIDs := make([]int64, 0, len(contactos))
	for _, c := range contactos {
		contactoIDs = append(contactoIDs, c.ID)

		examenes, err := r.examenes.ListExamenesByContacto(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load examenes for contacto %d: %w", c.ID, err)
		}
		g.Examenes[c.ID] = examenes

		controles, err := r.controles.ListControlesByContacto(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load controles for contacto %d: %w", c.ID, err)
		}
		g.Controles[c.ID] = controles

		tpts, err := r.tpt.ListIndicacionesByContacto(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tpt indicaciones for contacto %d: %w", c.ID, err)
		}
		g.Tpts[c.ID] = tpts
	}

	visitas, err := r.visitas.ListVisitasDeFamilia(ctx, casoID, contactoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitas for caso %d: %w", casoID, err)
	}
	g.Visitas = visitas

	return g, nil
}
