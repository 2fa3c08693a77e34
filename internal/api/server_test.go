package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/mockshop/internal/auth"
	apperrors "github.com/user/mockshop/internal/errors"
	"github.com/user/mockshop/internal/llm"
	"github.com/user/mockshop/internal/store"
)

// fakeRunner answers every turn with a fixed assistant message
type fakeRunner struct {
	mu       sync.Mutex
	userID   int
	history  []llm.Message
	err      error
	deadline bool
}

func (f *fakeRunner) RunTurn(ctx context.Context, userID int, history []llm.Message) ([]llm.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID = userID
	f.history = history
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return append(append([]llm.Message(nil), history...), llm.Message{Role: "assistant", Content: "Hello!"}), nil
}

func (f *fakeRunner) lastUserID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

func (f *fakeRunner) sawDeadline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deadline
}

func (f *fakeRunner) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testServer struct {
	*httptest.Server
	store  *store.MemoryStore
	runner *fakeRunner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.NewSeededMemoryStore(auth.NewHasher(bcrypt.MinCost).Hash, time.Now())
	require.NoError(t, err)

	runner := &fakeRunner{}
	srv := NewServer(Deps{
		Store:         st,
		Authenticator: auth.NewAuthenticator(st, auth.NewTokenIssuer("test-secret", time.Hour)),
		Chat:          runner,
		TurnTimeout:   5 * time.Second,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: st, runner: runner}
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/login", url.Values{"username": {username}, "password": {password}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "bearer", body.TokenType)
	return body.AccessToken
}

// do sends a request and decodes a JSON response into out when non-nil
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func detailOf(t *testing.T, ts *testServer, method, path, token string, body interface{}) (int, string) {
	t.Helper()
	var detail errorResponse
	resp := ts.do(t, method, path, token, body, &detail)
	return resp.StatusCode, detail.Detail
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	token := ts.login(t, "johndoe", "password123")
	require.NotEmpty(t, token)

	resp, err := http.PostForm(ts.URL+"/login", url.Values{"username": {"johndoe"}, "password": {"wrong"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	var detail errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	require.Equal(t, "Incorrect username or password", detail.Detail)
}

func TestHealthAndMiddleware(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set(RequestIDHeader, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	resp2 := ts.do(t, http.MethodGet, "/health", "", nil, nil)
	require.NotEmpty(t, resp2.Header.Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/products", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/products", "/orders", "/users/2"} {
		resp := ts.do(t, http.MethodGet, path, "", nil, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	}

	status, detail := detailOf(t, ts, http.MethodGet, "/products", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Could not validate credentials", detail)
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t)
	user := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	var products []store.Product
	resp := ts.do(t, http.MethodGet, "/products", user, nil, &products)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, products, 10)

	var product store.Product
	ts.do(t, http.MethodGet, "/products/3", user, nil, &product)
	require.Equal(t, "Running Shoes Pro", product.Name)

	status, detail := detailOf(t, ts, http.MethodGet, "/products/99", user, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Product not found", detail)

	status, _ = detailOf(t, ts, http.MethodGet, "/products/abc", user, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	newProduct := map[string]interface{}{"name": "Wool Scarf", "description": "Warm", "price": 24.5}

	status, detail = detailOf(t, ts, http.MethodPost, "/products", user, newProduct)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Only admins can create products", detail)

	status, _ = detailOf(t, ts, http.MethodPost, "/products", admin, map[string]interface{}{"name": "Free", "description": "x", "price": 0})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var created store.Product
	resp = ts.do(t, http.MethodPost, "/products", admin, newProduct, &created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 11, created.ID)
	require.Equal(t, 24.5, created.Price)
}

func TestDeleteProduct(t *testing.T) {
	ts := newTestServer(t)
	user := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	var created store.Product
	ts.do(t, http.MethodPost, "/products", admin, map[string]interface{}{"name": "Cap", "description": "Blue", "price": 9.99}, &created)

	tests := []struct {
		name   string
		token  string
		path   string
		status int
		detail string
	}{
		{"non-admin on unknown product", user, "/products/99", http.StatusForbidden, "Not authorized to delete this product"},
		{"non-admin on ordered product", user, "/products/1", http.StatusForbidden, "Not authorized to delete this product"},
		{"unknown product", admin, "/products/99", http.StatusNotFound, "Product not found"},
		{"ordered product", admin, "/products/1", http.StatusBadRequest, "Cannot delete a product that has been ordered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := detailOf(t, ts, http.MethodDelete, tt.path, tt.token, nil)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.detail, detail)
		})
	}

	var deleted store.Product
	resp := ts.do(t, http.MethodDelete, "/products/11", admin, nil, &deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, created, deleted)

	status, _ := detailOf(t, ts, http.MethodGet, "/products/11", admin, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestOrders_Read(t *testing.T) {
	ts := newTestServer(t)
	john := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	var own []store.Order
	ts.do(t, http.MethodGet, "/orders", john, nil, &own)
	require.Len(t, own, 3)
	for _, o := range own {
		require.Equal(t, 2, o.UserID)
	}

	var all []store.Order
	ts.do(t, http.MethodGet, "/orders", admin, nil, &all)
	require.Len(t, all, 9)

	var order store.Order
	resp := ts.do(t, http.MethodGet, "/orders/1", john, nil, &order)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, order.Products, 2)

	status, detail := detailOf(t, ts, http.MethodGet, "/orders/2", john, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Not authorized to access this order", detail)

	status, detail = detailOf(t, ts, http.MethodGet, "/orders/99", john, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Order not found", detail)

	status, detail = detailOf(t, ts, http.MethodGet, "/user_orders?user_id=3", john, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Not authorized to access this order", detail)

	// role is checked before the query parameter
	status, detail = detailOf(t, ts, http.MethodGet, "/user_orders", john, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Not authorized to access this order", detail)

	var sarah []store.Order
	ts.do(t, http.MethodGet, "/user_orders?user_id=3", admin, nil, &sarah)
	require.Len(t, sarah, 2)

	status, _ = detailOf(t, ts, http.MethodGet, "/user_orders", admin, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestOrders_Create(t *testing.T) {
	ts := newTestServer(t)
	john := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	body := map[string]interface{}{"items": []map[string]int{{"id": 1, "quantity": 2}, {"id": 5, "quantity": 1}}}

	var order store.Order
	resp := ts.do(t, http.MethodPost, "/orders", john, body, &order)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 10, order.ID)
	require.Equal(t, 2, order.UserID)
	require.Equal(t, store.StatusPending, order.Status)
	require.InDelta(t, 169.97, order.TotalPrice, 0.001)

	status, _ := detailOf(t, ts, http.MethodPost, "/orders", john, map[string]interface{}{"items": []map[string]int{{"id": 1, "quantity": 0}}})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = detailOf(t, ts, http.MethodPost, "/orders", john, map[string]interface{}{"items": []map[string]int{}})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, detail := detailOf(t, ts, http.MethodPost, "/orders", john, map[string]interface{}{"items": []map[string]int{{"id": 99, "quantity": 1}}})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Product not found", detail)

	status, detail = detailOf(t, ts, http.MethodPost, "/create_order?user_id=3", john, body)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Not authorized to create an order", detail)

	var forSarah store.Order
	resp = ts.do(t, http.MethodPost, "/create_order?user_id=3", admin, body, &forSarah)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, forSarah.UserID)

	status, _ = detailOf(t, ts, http.MethodPost, "/create_order?user_id=42", admin, body)
	require.Equal(t, http.StatusNotFound, status)
}

func TestOrders_Cancel(t *testing.T) {
	ts := newTestServer(t)
	john := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	status, detail := detailOf(t, ts, http.MethodPost, "/orders/1/cancel", john, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Cannot cancel a delivered order", detail)

	status, detail = detailOf(t, ts, http.MethodPost, "/orders/3/cancel", john, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Not authorized to cancel this order", detail)

	status, detail = detailOf(t, ts, http.MethodPost, "/orders/99/cancel", john, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Order not found", detail)

	var own store.Order
	resp := ts.do(t, http.MethodPost, "/orders/9/cancel", john, nil, &own)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, store.StatusCancelled, own.Status)
	require.NotNil(t, own.UpdatedAt)

	var other store.Order
	resp = ts.do(t, http.MethodPost, "/orders/3/cancel", admin, nil, &other)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, store.StatusCancelled, other.Status)
}

func TestGetUser(t *testing.T) {
	ts := newTestServer(t)
	john := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	var self map[string]interface{}
	resp := ts.do(t, http.MethodGet, "/users/2", john, nil, &self)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "johndoe", self["username"])
	require.Equal(t, "john.doe@example.com", self["email"])
	require.Equal(t, "user", self["role"])
	require.NotContains(t, self, "hashed_password")

	status, _ := detailOf(t, ts, http.MethodGet, "/users/3", john, nil)
	require.Equal(t, http.StatusForbidden, status)

	var other userResponse
	ts.do(t, http.MethodGet, "/users/3", admin, nil, &other)
	require.Equal(t, "sarahs", other.Username)

	status, detail := detailOf(t, ts, http.MethodGet, "/users/42", admin, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "User not found", detail)
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	john := ts.login(t, "johndoe", "password123")
	admin := ts.login(t, "admin", "admin123")

	history := []llm.Message{{Role: "user", Content: "Hi"}}

	var updated []llm.Message
	resp := ts.do(t, http.MethodPost, "/chat?user_id=2", john, history, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, updated, 2)
	require.Equal(t, "Hello!", updated[1].Content)
	require.Equal(t, 2, ts.runner.lastUserID())
	require.True(t, ts.runner.sawDeadline())

	status, _ := detailOf(t, ts, http.MethodPost, "/chat?user_id=3", john, history)
	require.Equal(t, http.StatusForbidden, status)

	resp = ts.do(t, http.MethodPost, "/chat?user_id=3", admin, history, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, ts.runner.lastUserID())

	resp = ts.do(t, http.MethodPost, "/chat?user_id=2", "", history, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	status, _ = detailOf(t, ts, http.MethodPost, "/chat", john, history)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid history", apperrors.NewInvalidHistoryError("history is empty"), http.StatusBadRequest},
		{"model unavailable", apperrors.NewModelUnavailableError("openai", context.DeadlineExceeded), http.StatusBadGateway},
		{"tool failure", apperrors.NewToolExecutionError("get_user_info", context.Canceled), http.StatusBadGateway},
		{"unknown tool", apperrors.NewUnknownToolError("transfer_funds"), http.StatusBadGateway},
		{"unclassified", context.Canceled, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			token := ts.login(t, "johndoe", "password123")
			ts.runner.fail(tt.err)

			var body map[string]interface{}
			resp := ts.do(t, http.MethodPost, "/chat?user_id=2", token, []llm.Message{{Role: "user", Content: "hi"}}, &body)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Contains(t, body, "detail")
			require.NotContains(t, body, "role")
		})
	}
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "admin", "admin123")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/chat?user_id=1", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOversizedBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "admin", "admin123")

	huge := `[{"role":"user","content":"` + strings.Repeat("x", int(maxBodyBytes)) + `"}]`
	req := httptest.NewRequest(http.MethodPost, "/chat?user_id=1", strings.NewReader(huge))
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.Config.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var detail errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	require.Equal(t, "Request body exceeds 1048576 bytes", detail.Detail)
	require.Zero(t, ts.runner.lastUserID())
}

func TestDecodeJSON_WithinLimit(t *testing.T) {
	body := `[{"role":"user","content":"` + strings.Repeat("x", 1024) + `"}]`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))

	var history []llm.Message
	require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &history))
	require.Len(t, history, 1)
	require.Len(t, history[0].Content, 1024)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(nopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"detail":"Internal Server Error"}`, rec.Body.String())
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b", "c", "handler"}, order)
}
