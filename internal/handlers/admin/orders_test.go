package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
)

type memStore struct {
	orders      []*models.Order
	recentLimit int
}

func (m *memStore) Insert(ctx context.Context, o *models.Order) error {
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderID == orderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	return nil, nil
}

func (m *memStore) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	m.recentLimit = limit
	var out []models.Order
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.orders[i])
	}
	return out, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.OrderID == orderID {
			o.Status = status
			o.UpdatedAt = time.Now()
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func newTestRouter(store *memStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &OrderAdminHandler{Orders: services.NewOrderService(store, nil)}
	r := gin.New()
	r.GET("/api/admin/orders", h.GetRecentOrders)
	r.PUT("/api/admin/orders/:orderId/status", h.UpdateOrderStatus)
	return r
}

func seedOrder(store *memStore, id string) {
	store.orders = append(store.orders, &models.Order{
		OrderID:               id,
		StripePaymentIntentID: "pi_" + id,
		Customer:              models.Customer{Name: "Ada", Email: "ada@example.com", Address: "12 Analytical Row"},
		Items:                 []models.OrderItem{{Name: "Candle", Quantity: 1, Price: 10}},
		Subtotal:              10,
		TotalAmount:           10,
		Status:                models.StatusProcessing,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	})
}

func putStatus(t *testing.T, r *gin.Engine, orderID, status string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"status": status})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/"+orderID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateOrderStatus(t *testing.T) {
	store := &memStore{}
	seedOrder(store, "ORD-1")
	r := newTestRouter(store)

	w := putStatus(t, r, "ORD-1", "shipped")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool         `json:"success"`
		Order   models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.StatusShipped, resp.Order.Status)
	assert.Equal(t, models.StatusShipped, store.orders[0].Status)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	store := &memStore{}
	seedOrder(store, "ORD-1")
	r := newTestRouter(store)

	w := putStatus(t, r, "ORD-1", "bogus")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "valid_statuses")
	assert.Equal(t, models.StatusProcessing, store.orders[0].Status, "stored status unchanged")
}

func TestUpdateOrderStatusMissingOrder(t *testing.T) {
	r := newTestRouter(&memStore{})

	w := putStatus(t, r, "ORD-GHOST", "shipped")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRecentOrders(t *testing.T) {
	store := &memStore{}
	for _, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		seedOrder(store, id)
	}
	r := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Orders []models.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, "ORD-3", resp.Orders[0].OrderID, "newest first")
}

func TestGetRecentOrdersDefaultsLimit(t *testing.T) {
	store := &memStore{}
	r := newTestRouter(store)

	for _, query := range []string{"", "?limit=abc", "?limit=-1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders"+query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 10, store.recentLimit, "query %q", query)
	}
}
