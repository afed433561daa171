package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/service"
	"github.com/chaimaJr/CoffeeHop/internal/util"
)

type NotificationHandler struct {
	Svc       *service.NotificationService
	JWTSecret []byte
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	notifs, err := h.Svc.List(c.Request().Context(), requester.UserID, offset, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notifs)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.MarkRead(c.Request().Context(), id, requester); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	count, err := h.Svc.MarkAllRead(c.Request().Context(), requester.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}
