// Package api wraps authenticated HTTP calls to the parking backend. Every
// other component talks to the backend through the Request primitive here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"parkeasy/internal/metrics"
	"parkeasy/internal/models"

	"github.com/rs/zerolog"
)

// TokenStore persists the bearer token between runs. Saving and clearing
// happen as side effects of login, register and logout.
type TokenStore interface {
	Save(ctx context.Context, session models.Session) error
	Clear(ctx context.Context) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	logger     *zerolog.Logger

	// The broadcast subscription goroutine issues requests while the
	// interactive loop logs in and out, so the token is guarded.
	mu    sync.RWMutex
	token string
}

// NewClient constructs a client for the given base URL, e.g.
// http://localhost:5000/api. The token starts empty; call SetToken to
// restore a persisted session.
func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseTokenStore configures durable session persistence.
func (c *Client) UseTokenStore(store TokenStore) {
	c.store = store
}

// Token returns the bearer token currently held, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken installs a bearer token without persisting it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Request performs one authenticated call and decodes the JSON response into
// out (skipped when out is nil). Non-2xx responses become *Error carrying the
// backend "error" field when present.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	endpoint := c.baseURL + path

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(endpointLabel(path), "transport_error")
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.IncAPIRequest(endpointLabel(path), "http_error")
		return c.decodeError(resp)
	}

	metrics.IncAPIRequest(endpointLabel(path), "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}

	if c.logger != nil {
		c.logger.Debug().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("api error response")
	}
	return apiErr
}

// endpointLabel keeps metric cardinality bounded by using only the first
// path segment.
func endpointLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(trimmed, "/?"); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        models.User `json:"user"`
}

// Login authenticates and stores the returned token, both in memory and in
// the token store when one is configured.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}

	var resp AuthResponse
	if err := c.Request(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}

	c.adoptSession(ctx, &resp)
	return &resp, nil
}

// Register creates an account. Role defaults to customer when empty. Like
// login, a successful call overwrites the stored token.
func (c *Client) Register(ctx context.Context, username, password, role string) (*AuthResponse, error) {
	if role == "" {
		role = models.RoleCustomer
	}
	body := map[string]string{"username": username, "password": password, "role": role}

	var resp AuthResponse
	if err := c.Request(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}

	c.adoptSession(ctx, &resp)
	return &resp, nil
}

func (c *Client) adoptSession(ctx context.Context, resp *AuthResponse) {
	c.SetToken(resp.AccessToken)
	if c.store == nil {
		return
	}
	session := models.Session{
		Token:    resp.AccessToken,
		Username: resp.User.Username,
		Role:     resp.User.Role,
	}
	if err := c.store.Save(ctx, session); err != nil && c.logger != nil {
		c.logger.Error().Err(err).Msg("persist session")
	}
}

// Logout drops the token locally. There is no backend call to make.
func (c *Client) Logout(ctx context.Context) {
	c.SetToken("")
	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil && c.logger != nil {
			c.logger.Error().Err(err).Msg("clear persisted session")
		}
	}
}

// ListSlots fetches parking slots. Empty location/status and floor 0 are
// omitted from the query string entirely.
func (c *Client) ListSlots(ctx context.Context, location string, floor int, status string) ([]models.Slot, error) {
	params := url.Values{}
	if location != "" {
		params.Set("location", location)
	}
	if floor > 0 {
		params.Set("floor", strconv.Itoa(floor))
	}
	if status != "" {
		params.Set("status", status)
	}

	path := "/parking-slots"
	if qs := params.Encode(); qs != "" {
		path += "?" + qs
	}

	var slots []models.Slot
	if err := c.Request(ctx, http.MethodGet, path, nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// SlotUpdate carries partial slot fields for PUT /parking-slots/{id}.
type SlotUpdate struct {
	Status   string `json:"status,omitempty"`
	BookedBy string `json:"booked_by,omitempty"`
}

func (c *Client) UpdateSlot(ctx context.Context, slotID string, update SlotUpdate) error {
	return c.Request(ctx, http.MethodPut, "/parking-slots/"+url.PathEscape(slotID), update, nil)
}

// ListBookings returns the caller's bookings; the backend scopes the result
// by role.
func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.Request(ctx, http.MethodGet, "/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateBookingRequest is the POST /bookings body.
type CreateBookingRequest struct {
	Name     string `json:"name"`
	Vehicle  string `json:"vehicle"`
	Slot     string `json:"slot"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Amount   int    `json:"amount"`
}

func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	var booking models.Booking
	if err := c.Request(ctx, http.MethodPost, "/bookings", req, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// BookingUpdate carries partial booking fields for PUT /bookings/{id}.
type BookingUpdate struct {
	Status   string `json:"status,omitempty"`
	Duration int    `json:"duration,omitempty"`
	Amount   int    `json:"amount,omitempty"`
	EndAt    string `json:"end_at,omitempty"`
}

func (c *Client) UpdateBooking(ctx context.Context, bookingID string, update BookingUpdate) error {
	return c.Request(ctx, http.MethodPut, "/bookings/"+url.PathEscape(bookingID), update, nil)
}

func (c *Client) DeleteBooking(ctx context.Context, bookingID string) error {
	return c.Request(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(bookingID), nil, nil)
}

// AdminStats fetches the aggregate dashboard numbers.
func (c *Client) AdminStats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.Request(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ExportBookings returns the full booking list for serialization.
func (c *Client) ExportBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.Request(ctx, http.MethodGet, "/admin/export", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.Request(ctx, http.MethodGet, "/health", nil, nil)
}
