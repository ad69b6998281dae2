package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

// DefaultSteemConnectURL is the public SteemConnect instance.
const DefaultSteemConnectURL = "https://steemconnect.com"

const steemConnectTimeout = 30 * time.Second

// SteemConnectError is an error answered by the signing service.
type SteemConnectError struct {
	StatusCode  int
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *SteemConnectError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("steemconnect: %s (status %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("steemconnect: %s: %s", e.Code, e.Description)
}

// SteemConnect signs and broadcasts operations on behalf of a user who
// granted the app an OAuth2 access token.
type SteemConnect struct {
	baseURL    string
	app        string
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.RWMutex
	accessToken string
}

// NewSteemConnect creates a client for the app registered as app.
func NewSteemConnect(baseURL, app string, logger *zap.Logger) *SteemConnect {
	if baseURL == "" {
		baseURL = DefaultSteemConnectURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SteemConnect{
		baseURL:    strings.TrimRight(baseURL, "/"),
		app:        app,
		httpClient: &http.Client{Timeout: steemConnectTimeout},
		logger:     logger,
	}
}

// SetAccessToken sets the token sent with every call.
func (s *SteemConnect) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// AccessToken returns the current token.
func (s *SteemConnect) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// LoginURL returns the authorization URL the user is sent to. After
// login the service redirects to callback with the token in the query.
func (s *SteemConnect) LoginURL(scope []string, callback, state string) string {
	q := url.Values{}
	q.Set("client_id", s.app)
	q.Set("redirect_uri", callback)
	if len(scope) > 0 {
		q.Set("scope", strings.Join(scope, ","))
	}
	if state != "" {
		q.Set("state", state)
	}
	return s.baseURL + "/oauth2/authorize?" + q.Encode()
}

// ParseReturnedURL extracts the account, access token and expiry from the
// callback URL and starts using the token.
func (s *SteemConnect) ParseReturnedURL(raw string) (domain.LoginResult, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return domain.LoginResult{}, errors.Wrap(err, "parse returned url")
	}
	q := u.Query()
	result := domain.LoginResult{
		Account:     q.Get("username"),
		AccessToken: q.Get("access_token"),
		ExpiresIn:   q.Get("expires_in"),
	}
	if result.Account == "" || result.AccessToken == "" {
		return domain.LoginResult{}, errors.Wrap(domain.ErrNotLoggedIn, "returned url has no username or access_token")
	}

	s.SetAccessToken(result.AccessToken)
	return result, nil
}

// Me returns the profile of the signed-in user.
func (s *SteemConnect) Me(ctx context.Context) (domain.Profile, error) {
	var profile domain.Profile
	err := s.send(ctx, http.MethodPost, "me", struct{}{}, &profile)
	return profile, err
}

// UpdateUserMetadata replaces the app metadata stored for the user.
func (s *SteemConnect) UpdateUserMetadata(ctx context.Context, metadata map[string]any) (domain.Profile, error) {
	var profile domain.Profile
	err := s.send(ctx, http.MethodPut, "me", map[string]any{"user_metadata": metadata}, &profile)
	return profile, err
}

// RevokeToken invalidates the access token and forgets it.
func (s *SteemConnect) RevokeToken(ctx context.Context) error {
	token := s.AccessToken()
	if err := s.send(ctx, http.MethodPost, "oauth2/token/revoke", map[string]string{"token": token}, nil); err != nil {
		return err
	}
	s.SetAccessToken("")
	return nil
}

// Broadcast signs ops as the signed-in user and broadcasts them in one
// transaction.
func (s *SteemConnect) Broadcast(ctx context.Context, ops []domain.Operation) (domain.BroadcastResult, error) {
	var res struct {
		Result domain.BroadcastResult `json:"result"`
	}
	if err := s.send(ctx, http.MethodPost, "broadcast", map[string]any{"operations": ops}, &res); err != nil {
		return domain.BroadcastResult{}, err
	}

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	s.logger.Info("operations broadcast",
		zap.Strings("operations", names),
		zap.String("trx_id", res.Result.ID),
		zap.Int64("block_num", res.Result.BlockNum))
	return res.Result, nil
}

func (s *SteemConnect) send(ctx context.Context, method, route string, body, result any) error {
	token := s.AccessToken()
	if token == "" {
		return domain.ErrNotLoggedIn
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/api/"+route, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "steemconnect %s", route)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	apiErr := &SteemConnectError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err == nil && apiErr.Code != "" {
		return apiErr
	}
	if resp.StatusCode != http.StatusOK {
		apiErr.Code = http.StatusText(resp.StatusCode)
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrap(err, "failed to unmarshal response")
	}
	return nil
}
