package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/models"
	"github.com/chaimaJr/CoffeeHop/internal/mykafka"
	"github.com/chaimaJr/CoffeeHop/internal/service"
	"github.com/chaimaJr/CoffeeHop/internal/util"
)

type OrderHandler struct {
	Svc       *service.OrderService
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["orderID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req service.CreateOrderInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(c.Request().Context(), requester.UserID, req)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.CustomerID,
		"total":   order.TotalPrice,
	})
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	summaries, err := h.Svc.ListOrders(
		c.Request().Context(),
		requester,
		models.OrderStatus(c.QueryParam("status")),
		offset, limit,
	)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(c.Request().Context(), id, requester)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ModifyOrder(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req service.ModifyOrderInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.ModifyOrder(c.Request().Context(), id, requester, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.CancelOrder(c.Request().Context(), id, requester); err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"orderID": id,
		"userID":  requester.UserID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled"})
}

// Queue lists orders waiting on a barista, oldest first.
func (h *OrderHandler) Queue(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	summaries, err := h.Svc.Queue(c.Request().Context(), requester)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateStatus(c.Request().Context(), id, requester, req.Status)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID,
		"userID":  order.CustomerID,
		"status":  order.Status,
	})
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) MarkFavourite(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		IsFavourite *bool `json:"is_favourite"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	flag := true
	if req.IsFavourite != nil {
		flag = *req.IsFavourite
	}

	if err := h.Svc.MarkFavourite(c.Request().Context(), id, requester, flag); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favourite": flag})
}
