// Menu browsing.  Products are owned by the menu service; this handler
// only reads them.

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// ProductHandler serves the public menu.
type ProductHandler struct {
	Products repository.ProductStore
}

// PublicProduct is a product with its category name resolved.
type PublicProduct struct {
	model.Product
	Category string `json:"category,omitempty"`
}

func (h *ProductHandler) withCategory(c echo.Context, p model.Product) (PublicProduct, error) {
	out := PublicProduct{Product: p}
	if p.CategoryID == nil {
		return out, nil
	}
	cat, err := h.Products.GetCategory(c.Request().Context(), *p.CategoryID)
	switch {
	case err == nil:
		out.Category = cat.Name
	case !errors.Is(err, repository.ErrNotFound):
		return out, err
	}
	return out, nil
}

// List handles GET /v1/products.
func (h *ProductHandler) List(c echo.Context) error {
	list, err := h.Products.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	items := make([]PublicProduct, 0, len(list))
	for _, p := range list {
		pp, err := h.withCategory(c, p)
		if err != nil {
			return writeError(c, err)
		}
		items = append(items, pp)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}
	if err != nil {
		return writeError(c, err)
	}
	pp, err := h.withCategory(c, *p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pp)
}
