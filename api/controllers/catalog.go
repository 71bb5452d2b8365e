package controllers

import (
	"net/http"

	"github.com/angelmondragon/codcrm-backend/api/responses"
	"github.com/angelmondragon/codcrm-backend/api/validators"
	"github.com/angelmondragon/codcrm-backend/internal/catalog"
	"github.com/angelmondragon/codcrm-backend/pkg/logger"
)

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		reply(w, r, logg, http.StatusOK, categories, err)
	}
}

func CategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body catalog.CreateCategoryInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		category, err := svc.CreateCategory(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, category, err)
	}
}

func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), catalog.ProductListParams{
			Params:     page,
			CategoryID: categoryID,
			Active:     active,
			Search:     search(r),
		})
		reply(w, r, logg, http.StatusOK, result, err)
	}
}

func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body catalog.CreateProductInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		product, err := svc.CreateProduct(r.Context(), actorFrom(r.Context()), body)
		reply(w, r, logg, http.StatusCreated, product, err)
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		reply(w, r, logg, http.StatusOK, product, err)
	}
}

func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body catalog.UpdateProductInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		product, err := svc.UpdateProduct(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusOK, product, err)
	}
}

func VariantCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body catalog.CreateVariantInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		variant, err := svc.CreateVariant(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, variant, err)
	}
}

// StockMove books a stock movement against the product or one of its variants.
func StockMove(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		var body catalog.StockMovementInput
		if !decodeBody(w, r, logg, &body) {
			return
		}
		movement, err := svc.MoveStock(r.Context(), actorFrom(r.Context()), id, body)
		reply(w, r, logg, http.StatusCreated, movement, err)
	}
}

func StockMovements(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, logg, "id")
		if !ok {
			return
		}
		movements, err := svc.ListMovements(r.Context(), id)
		reply(w, r, logg, http.StatusOK, movements, err)
	}
}
