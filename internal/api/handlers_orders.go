package api

import (
	"fmt"
	"net/http"

	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/logging"
	"github.com/user/mockshop/internal/store"
)

type orderCreateRequest struct {
	Items []store.OrderItem `json:"items"`
}

func (req orderCreateRequest) validate() error {
	if len(req.Items) == 0 {
		return apperrors.NewValidationError("items", "at least one item is required")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return apperrors.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than 0")
		}
	}
	return nil
}

// canAccess reports whether user may read or change order
func canAccess(user store.User, order store.Order) bool {
	return order.UserID == user.ID || user.IsAdmin()
}

// handleListOrders returns the caller's orders, or every order for admins
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, current store.User) {
	var (
		orders []store.Order
		err    error
	)
	if current.IsAdmin() {
		orders, err = s.store.ListOrders(r.Context())
	} else {
		orders, err = s.store.ListOrdersByUser(r.Context(), current.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleUserOrders(w http.ResponseWriter, r *http.Request, current store.User) {
	if !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to access this order"))
		return
	}
	userID, err := queryInt(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	orders, err := s.store.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, current store.User) {
	id, err := pathInt(r, "order_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.store.GetOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "Order"))
		return
	}
	if !canAccess(current, order) {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to access this order"))
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request, current store.User) {
	s.createOrder(w, r, current, current.ID)
}

// handleCreateOrderFor places an order on behalf of another user
func (s *Server) handleCreateOrderFor(w http.ResponseWriter, r *http.Request, current store.User) {
	userID, err := queryInt(r, "user_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !current.IsAdmin() {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to create an order"))
		return
	}
	if _, err := s.store.GetUser(r.Context(), userID); err != nil {
		s.writeError(w, r, notFoundAs(err, "User"))
		return
	}
	s.createOrder(w, r, current, userID)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, current store.User, userID int) {
	var req orderCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.store.CreateOrder(r.Context(), userID, req.Items)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "Product"))
		return
	}

	s.logger.Info("Order created",
		logging.Int("order_id", order.ID),
		logging.Int("user_id", userID),
		logging.String("by", current.Username),
		logging.Float64("total_price", order.TotalPrice),
	)
	writeJSON(w, http.StatusOK, order)
}

// handleCancelOrder cancels an order that has not been delivered yet
func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request, current store.User) {
	id, err := pathInt(r, "order_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.store.GetOrder(r.Context(), id)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "Order"))
		return
	}
	if !canAccess(current, order) {
		s.writeError(w, r, apperrors.NewForbiddenError("Not authorized to cancel this order"))
		return
	}
	if order.Status == store.StatusDelivered {
		s.writeError(w, r, apperrors.NewBadRequestError("Cannot cancel a delivered order"))
		return
	}

	updated, err := s.store.UpdateOrderStatus(r.Context(), id, store.StatusCancelled)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "Order"))
		return
	}

	s.logger.Info("Order cancelled",
		logging.Int("order_id", id),
		logging.String("by", current.Username),
	)
	writeJSON(w, http.StatusOK, updated)
}
