package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/service"
)

type FavouriteHandler struct {
	Svc       *service.OrderService
	JWTSecret []byte
}

func (h *FavouriteHandler) CreateFavourite(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req struct {
		Name    string `json:"name"`
		OrderID uint   `json:"order_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fav, err := h.Svc.CreateFavourite(c.Request().Context(), requester, req.Name, req.OrderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, fav)
}

func (h *FavouriteHandler) ListFavourites(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	favs, err := h.Svc.ListFavourites(c.Request().Context(), requester)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, favs)
}

func (h *FavouriteHandler) DeleteFavourite(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteFavourite(c.Request().Context(), id, requester); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reorder creates a fresh order from a saved template.
func (h *FavouriteHandler) Reorder(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		ScheduledFor *time.Time `json:"scheduled_for"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.Reorder(c.Request().Context(), id, requester, req.ScheduledFor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}
