package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/mykafka"
	"github.com/chaimaJr/CoffeeHop/internal/service"
)

type LoyaltyHandler struct {
	Svc       *service.LoyaltyService
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *LoyaltyHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "loyalty_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *LoyaltyHandler) ListOffers(c echo.Context) error {
	if _, err := GetRequester(c, h.JWTSecret); err != nil {
		return err
	}

	offers, err := h.Svc.ListOffers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, offers)
}

func (h *LoyaltyHandler) Redeem(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	redemption, err := h.Svc.Redeem(c.Request().Context(), requester.UserID, id)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, map[string]any{
		"type":    "offer_redeemed",
		"userID":  requester.UserID,
		"offerID": id,
		"points":  redemption.PointsSpent,
	})
	return c.JSON(http.StatusCreated, redemption)
}

func (h *LoyaltyHandler) ListRedemptions(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	redemptions, err := h.Svc.ListRedemptions(c.Request().Context(), requester.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, redemptions)
}

func (h *LoyaltyHandler) MarkRedemptionUsed(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.MarkRedemptionUsed(c.Request().Context(), id, requester); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "redemption used"})
}

func (h *LoyaltyHandler) Points(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}

	points, err := h.Svc.Points(c.Request().Context(), requester.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"points": points})
}
