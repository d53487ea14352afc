package server

import (
	"bike-rental-go/internal/api"
	"bike-rental-go/internal/models"
	"bike-rental-go/internal/store"

	"github.com/gofiber/fiber/v2"
)

type handlers struct {
	svc *api.Service
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return store.Validationf("invalid request body: %v", err)
	}
	return nil
}

func paramId(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, store.Validationf("%s must be a positive integer", name)
	}
	return int64(id), nil
}

func (h *handlers) health(c *fiber.Ctx) error {
	if err := h.svc.HealthCheck(c.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) info(c *fiber.Ctx) error {
	return c.JSON(h.svc.Info())
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *handlers) login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *handlers) getProfile(c *fiber.Ctx) error {
	user, err := h.svc.GetProfile(c.UserContext(), currentUserId(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *handlers) updateProfile(c *fiber.Ctx) error {
	var update models.ProfileUpdate
	if err := parseBody(c, &update); err != nil {
		return err
	}
	user, err := h.svc.UpdateProfile(c.UserContext(), currentUserId(c), update)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *handlers) listUsers(c *fiber.Ctx) error {
	users, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *handlers) userOperations(c *fiber.Ctx) error {
	userId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	ops, err := h.svc.History(c.UserContext(), userId)
	if err != nil {
		return err
	}
	return c.JSON(ops)
}

func (h *handlers) listBikes(c *fiber.Ctx) error {
	bikes, err := h.svc.ListBikes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(bikes)
}

func (h *handlers) createBike(c *fiber.Ctx) error {
	var req models.CreateBikeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	bike, err := h.svc.CreateBike(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(bike)
}

func (h *handlers) bikeStatus(c *fiber.Ctx) error {
	bikeId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	status, err := h.svc.BikeStatus(c.UserContext(), bikeId)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *handlers) dockBike(c *fiber.Ctx) error {
	bikeId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		StationId int64 `json:"station_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.svc.DockBike(c.UserContext(), bikeId, req.StationId); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) updateBikePosition(c *fiber.Ctx) error {
	bikeId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	var update models.PositionUpdate
	if err := parseBody(c, &update); err != nil {
		return err
	}
	if err := h.svc.UpdateBikePosition(c.UserContext(), bikeId, update); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) deleteBike(c *fiber.Ctx) error {
	bikeId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBike(c.UserContext(), bikeId); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) listStations(c *fiber.Ctx) error {
	stations, err := h.svc.ListStations(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stations)
}

func (h *handlers) createStation(c *fiber.Ctx) error {
	var req models.CreateStationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	station, err := h.svc.CreateStation(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(station)
}

func (h *handlers) getStation(c *fiber.Ctx) error {
	stationId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	station, err := h.svc.GetStation(c.UserContext(), stationId)
	if err != nil {
		return err
	}
	return c.JSON(station)
}

func (h *handlers) deleteStation(c *fiber.Ctx) error {
	stationId, err := paramId(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteStation(c.UserContext(), stationId); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) submitOperation(c *fiber.Ctx) error {
	var req models.OperationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	op, err := h.svc.SubmitOperation(c.UserContext(), currentUserId(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(op)
}

func (h *handlers) history(c *fiber.Ctx) error {
	ops, err := h.svc.History(c.UserContext(), currentUserId(c))
	if err != nil {
		return err
	}
	return c.JSON(ops)
}
