// Package client is a Go client for the storefront API together with the
// session and cart state a frontend keeps on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/models"
)

// ErrUnreachable is returned when the server cannot be reached at all.
var ErrUnreachable = errors.New("unable to connect to server")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// API wraps the storefront REST endpoints. The token, when present, is
// sent as a bearer token on every request.
type API struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// NewAPI returns a client for baseURL, e.g. "http://localhost:5000/api".
// A nil httpClient gets a 10-second timeout.
func NewAPI(baseURL string, httpClient *http.Client, tokens TokenStore) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token, err := a.tokens.Load(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type OrderCreated struct {
	Message     string          `json:"message"`
	OrderID     int64           `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ProductQuery mirrors the catalog query string. Zero values are omitted.
type ProductQuery struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("category", q.Category)
	set("search", q.Search)
	set("sortBy", q.SortBy)
	set("order", q.Order)
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (a *API) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := a.do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := a.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (a *API) Products(ctx context.Context, q ProductQuery) (*models.ProductPage, error) {
	var out models.ProductPage
	if err := a.do(ctx, http.MethodGet, "/products", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Product(ctx context.Context, id int64) (*models.Product, error) {
	var out models.Product
	if err := a.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := a.do(ctx, http.MethodGet, "/products/categories/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Cart(ctx context.Context) ([]models.CartLine, error) {
	var out []models.CartLine
	if err := a.do(ctx, http.MethodGet, "/cart", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) AddToCart(ctx context.Context, productID int64, quantity int) error {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return a.do(ctx, http.MethodPost, "/cart/add", nil, body, nil)
}

func (a *API) UpdateCartItem(ctx context.Context, cartID int64, quantity int) error {
	body := models.UpdateCartRequest{Quantity: quantity}
	return a.do(ctx, http.MethodPut, "/cart/update/"+strconv.FormatInt(cartID, 10), nil, body, nil)
}

func (a *API) RemoveFromCart(ctx context.Context, productID int64) error {
	return a.do(ctx, http.MethodDelete, "/cart/remove/"+strconv.FormatInt(productID, 10), nil, nil, nil)
}

func (a *API) ClearCart(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/cart/clear", nil, nil, nil)
}

func (a *API) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*OrderCreated, error) {
	var out OrderCreated
	if err := a.do(ctx, http.MethodPost, "/orders/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Orders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := a.do(ctx, http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Order(ctx context.Context, id int64) (*models.Order, error) {
	var out models.Order
	if err := a.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) SubmitContact(ctx context.Context, msg models.ContactMessage) error {
	return a.do(ctx, http.MethodPost, "/contact", nil, msg, nil)
}
