// Package client calls the booking backend over HTTP on behalf of a
// terminal or UI front end.
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

	"github.com/BruksfildServices01/barber-booking/internal/appstate"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// ErrTransport wraps every failure that happened before a usable answer
// came back: network errors, timeouts and undecodable bodies.
var ErrTransport = errors.New("transport_error")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	state   *appstate.Store
}

// New builds a client for baseURL. state may be nil for anonymous use.
func New(baseURL string, timeout time.Duration, state *appstate.Store) *Client {
	if state == nil {
		state = appstate.New()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		state:   state,
	}
}

func (c *Client) State() *appstate.Store {
	return c.state
}

// ======================================================
// TRANSPORT
// ======================================================

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrTransport, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.state.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.state.Teardown()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e httperr.HTTPError
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			apiErr.Code = e.Code
			apiErr.Message = e.Message
		}
		if apiErr.Code == "" {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, path, err)
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func branchPath(tenantID, branchID uint) string {
	return fmt.Sprintf("/api/public/tenants/%d/branches/%d", tenantID, branchID)
}

// ======================================================
// AUTH
// ======================================================

// Login authenticates and initialises the application state.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}

	c.state.Init(out.Token, appstate.Profile{
		UserID:   out.User.ID,
		TenantID: out.User.TenantID,
		BranchID: out.User.BranchID,
		Name:     out.User.Name,
		Email:    out.User.Email,
		Role:     out.User.Role,
	})
	return &out, nil
}

func (c *Client) Logout() {
	c.state.Teardown()
}

// ======================================================
// LOOKUPS
// ======================================================

func (c *Client) Service(ctx context.Context, tenantID, serviceID uint) (*dto.ServiceDTO, error) {
	var out dto.ServiceDTO
	path := fmt.Sprintf("/api/public/tenants/%d/services/%d", tenantID, serviceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Services lists the tenant's services; it needs a logged-in session.
func (c *Client) Services(ctx context.Context) (*dto.ServicesResponse, error) {
	var out dto.ServicesResponse
	if err := c.do(ctx, http.MethodGet, "/api/me/services", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WorkingHours(ctx context.Context, tenantID, branchID uint) (*dto.WorkingHoursResponse, error) {
	var out dto.WorkingHoursResponse
	if err := c.do(ctx, http.MethodGet, branchPath(tenantID, branchID)+"/working-hours", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Overrides(ctx context.Context, tenantID, branchID uint, from, to string) (*dto.OverridesResponse, error) {
	q := url.Values{}
	q.Set("start_date", from)
	q.Set("end_date", to)

	var out dto.OverridesResponse
	if err := c.do(ctx, http.MethodGet, branchPath(tenantID, branchID)+"/overrides?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Availability(
	ctx context.Context,
	tenantID, branchID, barberID uint,
	date string,
	serviceID uint,
) (*dto.AvailabilityDTO, error) {

	q := url.Values{}
	q.Set("date", date)
	if serviceID != 0 {
		q.Set("service_id", strconv.FormatUint(uint64(serviceID), 10))
	}

	path := fmt.Sprintf("%s/barbers/%d/availability?%s", branchPath(tenantID, branchID), barberID, q.Encode())

	var out dto.AvailabilityDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ======================================================
// LOCKS / COMMIT
// ======================================================

func (c *Client) AcquireLock(ctx context.Context, tenantID, branchID uint, req dto.LockRequest) (*dto.LockDTO, error) {
	var out dto.LockDTO
	if err := c.do(ctx, http.MethodPost, branchPath(tenantID, branchID)+"/locks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseLock is idempotent: a lock the server no longer knows counts as
// released.
func (c *Client) ReleaseLock(ctx context.Context, tenantID, branchID uint, lockID string) error {
	path := branchPath(tenantID, branchID) + "/locks/" + url.PathEscape(lockID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if IsStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func (c *Client) Commit(ctx context.Context, tenantID, branchID uint, req dto.CommitRequest) (*dto.AppointmentDTO, error) {
	var out dto.AppointmentDTO
	if err := c.do(ctx, http.MethodPost, branchPath(tenantID, branchID)+"/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
