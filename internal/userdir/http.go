package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/mockshop/internal/config"
	"github.com/user/mockshop/internal/logging"
)

// StatusError is returned when the shop API answers with a non-2xx status
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

// HTTPDirectory fetches users from the shop API with a service credential.
// The bearer token is cached until it is older than the configured TTL or
// the API rejects it.
type HTTPDirectory struct {
	baseURL    string
	username   string
	password   string
	tokenTTL   time.Duration
	httpClient *http.Client
	logger     *logging.Logger

	mu       sync.Mutex
	token    string
	issuedAt time.Time
	now      func() time.Time
}

// NewHTTPDirectory creates a directory from the userdir config. A nil client
// gets a default one with the configured timeout.
func NewHTTPDirectory(cfg config.UserDirConfig, httpClient *http.Client, logger *logging.Logger) *HTTPDirectory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetTimeout()}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPDirectory{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		tokenTTL:   cfg.GetTokenTTL(),
		httpClient: httpClient,
		logger:     logger.Named("userdir"),
		now:        time.Now,
	}
}

// LookupUser returns the username and email of userID
func (d *HTTPDirectory) LookupUser(ctx context.Context, userID int) (UserInfo, error) {
	token, err := d.accessToken(ctx)
	if err != nil {
		return UserInfo{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/users/"+strconv.Itoa(userID), nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("user lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to read user response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		d.dropToken(token)
		return UserInfo{}, &StatusError{Op: "fetch user", StatusCode: resp.StatusCode, Body: string(body)}
	case resp.StatusCode == http.StatusNotFound:
		return UserInfo{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return UserInfo{}, &StatusError{Op: "fetch user", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return UserInfo{}, fmt.Errorf("failed to parse user response: %w", err)
	}
	return info, nil
}

// accessToken returns the cached token or logs in for a new one
func (d *HTTPDirectory) accessToken(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token != "" && d.now().Sub(d.issuedAt) < d.tokenTTL {
		return d.token, nil
	}

	token, err := d.login(ctx)
	if err != nil {
		return "", err
	}
	d.token = token
	d.issuedAt = d.now()
	d.logger.Debug("Obtained directory access token", logging.String("username", d.username))
	return token, nil
}

// dropToken clears the cache if it still holds token
func (d *HTTPDirectory) dropToken(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.token == token {
		d.token = ""
		d.logger.Warn("Directory token rejected, cleared cache")
	}
}

func (d *HTTPDirectory) login(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("username", d.username)
	form.Set("password", d.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Op: "login", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("login response has no access token")
	}
	return tok.AccessToken, nil
}
