package handler

import (
	"net/http"

	"garage/internal/service"
	"garage/pkg/pagination"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.POST("/:id/receipts", h.ReceiveStock)
		products.GET("/:id/movements", h.ListMovements)
	}
}

// GetProducts handles retrieving paginated inventory statuses
// @Summary      Get products
// @Description  Retrieves a paginated list of products with current stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)

	products, total, err := h.inventoryService.ListProducts(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, products, total, p.Page, p.Limit))
}

// GetProduct returns one product through the cache
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.inventoryService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new inventory product entry
// @Summary      Create product
// @Description  Creates a new product entry in the inventory system
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ReceiveStock books a delivery into the stores
// @Summary      Receive stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Product ID"
// @Param        payload  body      service.ReceiveStockRequest  true  "Quantity received"
// @Success      200      {object}  response.Response{data=model.Product}
// @Router       /api/products/{id}/receipts [post]
func (h *InventoryHandler) ReceiveStock(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReceiveStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.inventoryService.ReceiveStock(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListMovements returns the stock ledger of a product
// @Summary      Stock movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=[]model.InventoryTransaction}
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	movements, err := h.inventoryService.ListMovements(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, movements))
}
