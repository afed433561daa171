package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/chaimaJr/CoffeeHop/internal/handlers"
)

type Deps struct {
	AuthHandler         *handlers.AuthHandler
	MenuHandler         *handlers.MenuHandler
	OrderHandler        *handlers.OrderHandler
	FavouriteHandler    *handlers.FavouriteHandler
	LoyaltyHandler      *handlers.LoyaltyHandler
	NotificationHandler *handlers.NotificationHandler
	WSHandler           *handlers.WSHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.GET("/profile", d.AuthHandler.Profile)
	v1.PATCH("/profile", d.AuthHandler.UpdateProfile)

	menu := v1.Group("/menu-items")
	menu.GET("", d.MenuHandler.GetMenuItems)
	menu.GET("/search", d.MenuHandler.SearchMenu)
	menu.GET("/:id", d.MenuHandler.GetMenuItem)
	menu.POST("", d.MenuHandler.CreateMenuItem)
	menu.PATCH("/:id", d.MenuHandler.PatchMenuItem)
	menu.DELETE("/:id", d.MenuHandler.DeleteMenuItem)

	orders := v1.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/queue", d.OrderHandler.Queue)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id", d.OrderHandler.ModifyOrder)
	orders.DELETE("/:id", d.OrderHandler.CancelOrder)
	orders.POST("/:id/status", d.OrderHandler.UpdateStatus)
	orders.POST("/:id/favourite", d.OrderHandler.MarkFavourite)

	favs := v1.Group("/favourites")
	favs.GET("", d.FavouriteHandler.ListFavourites)
	favs.POST("", d.FavouriteHandler.CreateFavourite)
	favs.DELETE("/:id", d.FavouriteHandler.DeleteFavourite)
	favs.POST("/:id/reorder", d.FavouriteHandler.Reorder)

	v1.GET("/loyalty-offers", d.LoyaltyHandler.ListOffers)
	v1.POST("/loyalty-offers/:id/redeem", d.LoyaltyHandler.Redeem)
	v1.GET("/redemptions", d.LoyaltyHandler.ListRedemptions)
	v1.POST("/redemptions/:id/use", d.LoyaltyHandler.MarkRedemptionUsed)
	v1.GET("/loyalty-points", d.LoyaltyHandler.Points)

	notifs := v1.Group("/notifications")
	notifs.GET("", d.NotificationHandler.ListNotifications)
	notifs.POST("/:id/read", d.NotificationHandler.MarkRead)
	notifs.POST("/read-all", d.NotificationHandler.MarkAllRead)

	e.GET("/ws/orders/:id", d.WSHandler.Subscribe)
}
