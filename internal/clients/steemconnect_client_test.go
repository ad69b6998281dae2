package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          string
}

type requestLog struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (l *requestLog) all() []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedRequest(nil), l.requests...)
}

func newTestSteemConnect(t *testing.T, status int, response string) (*SteemConnect, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		log.mu.Lock()
		log.requests = append(log.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		log.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	sc := NewSteemConnect(srv.URL, "easysteem.app", nil)
	sc.SetAccessToken("secret-token")
	return sc, log
}

func TestSteemConnect_LoginURL(t *testing.T) {
	sc := NewSteemConnect("", "easysteem.app", nil)

	raw := sc.LoginURL([]string{"vote", "comment"}, "https://example.com/callback", "from=home")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "steemconnect.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "easysteem.app", q.Get("client_id"))
	assert.Equal(t, "https://example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "vote,comment", q.Get("scope"))
	assert.Equal(t, "from=home", q.Get("state"))

	noState, err := url.Parse(sc.LoginURL(nil, "https://example.com/callback", ""))
	require.NoError(t, err)
	assert.False(t, noState.Query().Has("state"))
	assert.False(t, noState.Query().Has("scope"))
}

func TestSteemConnect_ParseReturnedURL(t *testing.T) {
	sc := NewSteemConnect("", "easysteem.app", nil)

	result, err := sc.ParseReturnedURL("https://my-awesome-website.com/steemconnect/?access_token=THISISASECUREDTOKEN&expires_in=604800&username=harpagon")
	require.NoError(t, err)
	assert.Equal(t, domain.LoginResult{
		Account:     "harpagon",
		AccessToken: "THISISASECUREDTOKEN",
		ExpiresIn:   "604800",
	}, result)
	assert.Equal(t, "THISISASECUREDTOKEN", sc.AccessToken())

	_, err = sc.ParseReturnedURL("https://my-awesome-website.com/steemconnect/?expires_in=604800")
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestSteemConnect_Broadcast(t *testing.T) {
	sc, requests := newTestSteemConnect(t, http.StatusOK,
		`{"result":{"id":"abc123","block_num":21000001,"trx_num":3,"expired":false}}`)

	ops := []domain.Operation{{Name: "delete_comment", Payload: map[string]string{"author": "alice", "permlink": "p"}}}
	result, err := sc.Broadcast(context.Background(), ops)
	require.NoError(t, err)

	assert.Equal(t, "abc123", result.ID)
	assert.Equal(t, int64(21000001), result.BlockNum)
	reqs := requests.all()
	require.Len(t, reqs, 1)

	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/broadcast", req.Path)
	assert.Equal(t, "secret-token", req.Authorization)
	assert.JSONEq(t, `{"operations":[["delete_comment",{"author":"alice","permlink":"p"}]]}`, req.Body)
}

func TestSteemConnect_ServiceError(t *testing.T) {
	sc, _ := newTestSteemConnect(t, http.StatusUnauthorized,
		`{"error":"invalid_grant","error_description":"The token has invalid role"}`)

	_, err := sc.Broadcast(context.Background(), nil)
	require.Error(t, err)

	var scErr *SteemConnectError
	require.ErrorAs(t, err, &scErr)
	assert.Equal(t, "invalid_grant", scErr.Code)
	assert.Equal(t, http.StatusUnauthorized, scErr.StatusCode)
}

func TestSteemConnect_NonJSONError(t *testing.T) {
	sc, _ := newTestSteemConnect(t, http.StatusBadGateway, `bad gateway`)

	_, err := sc.Me(context.Background())
	var scErr *SteemConnectError
	require.ErrorAs(t, err, &scErr)
	assert.Equal(t, http.StatusBadGateway, scErr.StatusCode)
}

func TestSteemConnect_NotLoggedIn(t *testing.T) {
	sc := NewSteemConnect("", "easysteem.app", nil)

	_, err := sc.Broadcast(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestSteemConnect_MeAndMetadata(t *testing.T) {
	sc, requests := newTestSteemConnect(t, http.StatusOK,
		`{"user":"alice","name":"alice","scope":["vote"],"account":{"name":"alice","voting_power":9000},"user_metadata":{"theme":"dark"}}`)

	profile, err := sc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User)
	assert.Equal(t, int64(9000), profile.Account.VotingPower)
	assert.Equal(t, "dark", profile.UserMetadata["theme"])

	_, err = sc.UpdateUserMetadata(context.Background(), map[string]any{"theme": "light"})
	require.NoError(t, err)

	reqs := requests.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/me", reqs[0].Path)
	assert.Equal(t, http.MethodPut, reqs[1].Method)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(reqs[1].Body), &body))
	assert.Equal(t, "light", body["user_metadata"]["theme"])
}

func TestSteemConnect_RevokeToken(t *testing.T) {
	sc, requests := newTestSteemConnect(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, sc.RevokeToken(context.Background()))
	assert.Empty(t, sc.AccessToken())
	reqs := requests.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/oauth2/token/revoke", reqs[0].Path)
	assert.JSONEq(t, `{"token":"secret-token"}`, reqs[0].Body)
}
