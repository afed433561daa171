package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chaimaJr/CoffeeHop/internal/es"
	"github.com/chaimaJr/CoffeeHop/internal/models"
	"github.com/chaimaJr/CoffeeHop/internal/mykafka"
	"github.com/chaimaJr/CoffeeHop/internal/service/search"
	"github.com/chaimaJr/CoffeeHop/internal/util"
)

type MenuHandler struct {
	DB        *gorm.DB
	ES        *elasticsearch.Client
	Producer  *mykafka.Producer
	JWTSecret []byte
}

func (h *MenuHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "menu_events", fmt.Sprint(event["itemID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// index mirrors the menu item into Elasticsearch, best-effort.
func (h *MenuHandler) index(c echo.Context, item *models.MenuItem) {
	if h.ES == nil {
		return
	}
	if err := search.IndexMenuItem(c.Request().Context(), h.ES, es.MenuIndex, item); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *MenuHandler) GetMenuItems(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.MenuItem{})
	if t := c.QueryParam("item_type"); t != "" {
		q = q.Where("item_type = ?", t)
	}
	if avail := c.QueryParam("is_available"); avail != "" {
		q = q.Where("is_available = ?", avail == "true")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var items []models.MenuItem
	if err := q.Order("item_type ASC, title ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *MenuHandler) GetMenuItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) SearchMenu(c echo.Context) error {
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, items, err := search.Search(c.Request().Context(), h.ES, es.MenuIndex, query, from, limit)
	if err != nil {
		c.Logger().Errorf("ES search error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "search failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":  items,
		"total": total,
	})
}

type menuItemRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ItemType        string          `json:"item_type"`
	Price           decimal.Decimal `json:"price"`
	IsAvailable     *bool           `json:"is_available"`
	PreparationTime int             `json:"preparation_time"`
}

func (h *MenuHandler) CreateMenuItem(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	if !requester.IsStaff() {
		return echo.NewHTTPError(http.StatusForbidden, "barista or admin required")
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if req.ItemType != models.ItemTypeCoffee && req.ItemType != models.ItemTypeDessert {
		return echo.NewHTTPError(http.StatusBadRequest, "item_type must be COFFEE or DESSERT")
	}
	if req.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	item := models.MenuItem{
		Title:           req.Title,
		Description:     req.Description,
		ItemType:        req.ItemType,
		Price:           req.Price,
		IsAvailable:     true,
		PreparationTime: req.PreparationTime,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if item.PreparationTime <= 0 {
		item.PreparationTime = 5
	}

	if err := h.DB.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, &item)
	h.publish(c, map[string]any{
		"type":   "menu_item_created",
		"itemID": item.ID,
		"title":  item.Title,
	})
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) PatchMenuItem(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	if !requester.IsStaff() {
		return echo.NewHTTPError(http.StatusForbidden, "barista or admin required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title           *string          `json:"title"`
		Description     *string          `json:"description"`
		ItemType        *string          `json:"item_type"`
		Price           *decimal.Decimal `json:"price"`
		IsAvailable     *bool            `json:"is_available"`
		PreparationTime *int             `json:"preparation_time"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var item models.MenuItem
	if err := h.DB.First(&item, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "menu item not found")
	}

	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.ItemType != nil {
		if *req.ItemType != models.ItemTypeCoffee && *req.ItemType != models.ItemTypeDessert {
			return echo.NewHTTPError(http.StatusBadRequest, "item_type must be COFFEE or DESSERT")
		}
		item.ItemType = *req.ItemType
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return echo.NewHTTPError(http.StatusBadRequest, "price must be >= 0")
		}
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.PreparationTime != nil && *req.PreparationTime > 0 {
		item.PreparationTime = *req.PreparationTime
	}

	if err := h.DB.Save(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.index(c, &item)
	h.publish(c, map[string]any{
		"type":   "menu_item_updated",
		"itemID": item.ID,
		"title":  item.Title,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c echo.Context) error {
	requester, err := GetRequester(c, h.JWTSecret)
	if err != nil {
		return err
	}
	if requester.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "admin required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.MenuItem{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if h.ES != nil {
		if err := search.DeleteMenuItem(c.Request().Context(), h.ES, es.MenuIndex, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	h.publish(c, map[string]any{
		"type":   "menu_item_deleted",
		"itemID": id,
	})
	return c.NoContent(http.StatusNoContent)
}
