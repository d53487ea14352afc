package api

import (
	"context"

	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"
)

// SubmitOperation runs a checkout or return for the authenticated rider.
func (s *Service) SubmitOperation(ctx context.Context, userId int64, req models.OperationRequest) (*models.Operation, error) {
	switch req.Kind {
	case models.OperationCheckout:
		return s.engine.Checkout(ctx, userId, req.BikeId, req.StationId)
	case models.OperationReturn:
		return s.engine.ReturnBike(ctx, userId, req.BikeId, req.StationId, req.Distance)
	default:
		return nil, store.Validationf("kind must be %q or %q, got %q", models.OperationCheckout, models.OperationReturn, req.Kind)
	}
}

func (s *Service) Checkout(ctx context.Context, userId, bikeId, stationId int64) (*models.Operation, error) {
	return s.engine.Checkout(ctx, userId, bikeId, stationId)
}

func (s *Service) ReturnBike(ctx context.Context, userId, bikeId, stationId, distance int64) (*models.Operation, error) {
	return s.engine.ReturnBike(ctx, userId, bikeId, stationId, distance)
}

func (s *Service) History(ctx context.Context, userId int64) ([]models.Operation, error) {
	return s.engine.UserHistory(ctx, userId)
}

// Info describes the HTTP API and the active tariff.
func (s *Service) Info() models.ApiInfo {
	return models.ApiInfo{
		Name:     "bike-rental-go",
		Version:  "1.0",
		Currency: s.ledger.Tariff().Currency(),
		Endpoints: map[string]string{
			"POST /api/register":            "create a rider account",
			"POST /api/login":               "obtain a bearer token",
			"GET /api/profile":              "current rider profile",
			"PATCH /api/profile":            "update profile fields",
			"GET /api/users":                "list riders (admin)",
			"GET /api/bikes":                "list bikes by distance traveled",
			"POST /api/bikes":               "add a bike (admin)",
			"GET /api/bikes/:id":            "bike status",
			"PUT /api/bikes/:id/position":   "report bike position",
			"POST /api/bikes/:id/dock":      "dock a bike at a station (admin)",
			"DELETE /api/bikes/:id":         "retire a docked bike (admin)",
			"GET /api/stations":             "list stations",
			"POST /api/stations":            "open a station (admin)",
			"GET /api/stations/:id":         "station occupancy",
			"DELETE /api/stations/:id":      "retire a station (admin)",
			"POST /api/operations":          "checkout or return a bike",
			"GET /api/operations":           "rental history of the current rider",
			"GET /api/users/:id/operations": "rental history of a rider (admin)",
		},
	}
}
