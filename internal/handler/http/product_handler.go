package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"github.com/vasiliy-maslov/freshcart/internal/product"
)

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0,lte=2147483647"`
	Unit        string           `json:"unit"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	// SoldCount is accepted so admin forms can echo a full product; it is ignored.
	SoldCount *int `json:"soldCount,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1"`
	Category    *string          `json:"category" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	Unit        *string          `json:"unit"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	SoldCount   *int             `json:"soldCount,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router, guard *Guard) {
	router.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.handleListProducts)
		r.Get("/categories", h.handleListCategories)
		r.Get("/{id}", h.handleGetProduct)

		r.Group(func(admin chi.Router) {
			admin.Use(guard.Require(auth.OpManageProducts))
			admin.Post("/", h.handleCreateProduct)
			admin.Put("/{id}", h.handleUpdateProduct)
			admin.Delete("/{id}", h.handleDeleteProduct)
		})
	})
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", product.ErrInvalidQuery, key)
	}
	return value, nil
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ListProducts(r.Context(), product.ListQuery{
		Page:     page,
		Limit:    limit,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list categories")
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, chi.URLParam(r, "id"), "Product not found")
	if !ok {
		return
	}

	found, err := h.service.GetProduct(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), &product.Product{
		Name:        requestPayload.Name,
		Category:    requestPayload.Category,
		Price:       *requestPayload.Price,
		Stock:       requestPayload.Stock,
		Unit:        requestPayload.Unit,
		Description: requestPayload.Description,
		Image:       requestPayload.Image,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, chi.URLParam(r, "id"), "Product not found")
	if !ok {
		return
	}

	var requestPayload UpdateProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}
	if requestPayload.SoldCount != nil {
		log.Debug().Stringer("product_id", productID).Msg("Ignoring soldCount in product update")
	}

	updated, err := h.service.UpdateProduct(r.Context(), productID, product.Update{
		Name:        requestPayload.Name,
		Category:    requestPayload.Category,
		Price:       requestPayload.Price,
		Stock:       requestPayload.Stock,
		Unit:        requestPayload.Unit,
		Description: requestPayload.Description,
		Image:       requestPayload.Image,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, chi.URLParam(r, "id"), "Product not found")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		respondWithServiceError(w, err, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Product removed"})
}
