package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/hub"
	"github.com/chaimaJr/CoffeeHop/internal/models"
	"github.com/chaimaJr/CoffeeHop/internal/service"
)

// WSHandler streams live status changes for a single order over a
// websocket. Subscribers get only events that happen after they connect;
// there is no backfill.
type WSHandler struct {
	Svc       *service.OrderService
	Hub       *hub.Hub
	JWTSecret []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Subscribe handles GET /ws/orders/:id. Only the order's owner or staff may
// watch; everyone else is rejected before the upgrade.
func (h *WSHandler) Subscribe(c echo.Context) error {
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
	if models.IsTerminal(order.Status) {
		return echo.NewHTTPError(http.StatusConflict, "order already finished")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	events, cancel := h.Hub.Subscribe(order.ID)
	defer cancel()

	// Drain the client side so we notice a disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				// Terminal status: the topic was closed server-side.
				_ = conn.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order finished"),
				)
				return nil
			}
			if err := conn.WriteJSON(e); err != nil {
				return nil
			}
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
