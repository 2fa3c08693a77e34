package api

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/store"
)

type productCreateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

func (req productCreateRequest) validate() (store.ProductInput, error) {
	switch {
	case req.Name == nil || strings.TrimSpace(*req.Name) == "":
		return store.ProductInput{}, apperrors.NewValidationError("name", "field required")
	case req.Description == nil:
		return store.ProductInput{}, apperrors.NewValidationError("description", "field required")
	case req.Price == nil:
		return store.ProductInput{}, apperrors.NewValidationError("price", "field required")
	case *req.Price <= 0:
		return store.ProductInput{}, apperrors.NewValidationError("price", "must be greater than 0")
	}
	return store.ProductInput{Name: *req.Name, Description: *req.Description, Price: *req.Price}, nil
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request, _ store.User) {
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request, _ store.User) {
	id, err := pathInt(r, "product_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "Product"))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, current store.User) {
	if !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Only admins can create products"))
		return
	}

	var req productCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.validate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	product, err := s.store.CreateProduct(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("Product created",
		logging.Int("product_id", product.ID),
		logging.String("by", current.Username),
	)
	writeJSON(w, http.StatusOK, product)
}

// handleDeleteProduct removes a product that no order references. Only
// admins may delete, and the role is checked before the product is looked
// up so non-admins learn nothing about the catalogue.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, current store.User) {
	id, err := pathInt(r, "product_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to delete this product"))
		return
	}

	product, err := s.store.DeleteProduct(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrProductInUse):
		s.writeError(w, r, apperrors.NewBadRequestError("Cannot delete a product that has been ordered"))
		return
	case err != nil:
		s.writeError(w, r, notFoundAs(err, "Product"))
		return
	}

	s.logger.Info("Product deleted",
		logging.Int("product_id", product.ID),
		logging.String("by", current.Username),
	)
	writeJSON(w, http.StatusOK, product)
}
