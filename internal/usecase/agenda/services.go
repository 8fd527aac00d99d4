package agenda

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
)

// FallbackServices is offered when the catalogue cannot be loaded so a booking
// can still be taken.
var FallbackServices = []models.Service{
	{ID: 1, Name: "Corte de cabello", DurationMin: 30, Price: 2500},
	{ID: 2, Name: "Arreglo de barba", DurationMin: 20, Price: 1500},
	{ID: 3, Name: "Corte + Barba", DurationMin: 45, Price: 3500},
	{ID: 4, Name: "Tinte", DurationMin: 60, Price: 5000},
	{ID: 5, Name: "Peinado", DurationMin: 30, Price: 2000},
}

type ListServices struct {
	d   Deps
	log *zap.Logger
}

func NewListServices(d Deps, log *zap.Logger) *ListServices {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListServices{d: d, log: log}
}

// Execute returns the catalogue, or the fallback list with fallback=true. An
// expired session is still reported as an error.
func (uc *ListServices) Execute(ctx context.Context) (services []models.Service, fallback bool, err error) {
	list, err := uc.d.Backend.Services(ctx)
	if httperr.Is(err, httperr.KindAuth) {
		return nil, false, err
	}
	if err != nil || len(list) == 0 {
		uc.log.Warn("service catalogue unavailable, using fallback", zap.Error(err))
		return append([]models.Service(nil), FallbackServices...), true, nil
	}
	return list, false, nil
}

// Find looks a service up in the catalogue, falling back the same way.
func (uc *ListServices) Find(ctx context.Context, id uint) (models.Service, error) {
	list, _, err := uc.Execute(ctx)
	if err != nil {
		return models.Service{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Service{}, httperr.ErrValidation("service_not_found", "Servicio no encontrado.")
}
