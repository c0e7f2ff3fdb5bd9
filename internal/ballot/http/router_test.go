package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/internal/ballot/store/drivers/sqlite"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/jwtx"
	"github.com/openballot/ballotd/pkg/mailx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ballotd-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// testServer wires a full router against an in-memory store with a pinned
// clock sitting inside the voting window of sessions created for "today".
type testServer struct {
	*httptest.Server
	store store.Store
	mail  *mailx.Recorder
}

func newTestServer(t *testing.T, now func() time.Time) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer := &jwtx.Signer{
		Secret:   []byte("test-secret"),
		Issuer:   "ballotd-test",
		Audience: "ballotd-test",
		TTL:      time.Hour,
	}
	mail := &mailx.Recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(signer, "test", st, logger)
	router.AuthService = &service.AuthService{Store: st}
	router.OrganizationService = &service.OrganizationService{Store: st, Clock: now}
	router.SessionService = &service.SessionService{Store: st, Clock: now}
	router.RosterService = &service.RosterService{Store: st, Mail: mail, Clock: now}
	router.IssuanceService = &service.IssuanceService{Store: st, Mail: mail, Clock: now}
	router.CastingService = &service.CastingService{Store: st, Clock: now}
	router.AuditService = &service.AuditService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: st, mail: mail}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		var v any
		require.NoError(t, json.Unmarshal(raw, &v))
		decoded, _ = v.(map[string]any)
	}
	return resp, decoded
}

func TestFullVotingFlow(t *testing.T) {
	// The clock starts the day before the vote for the setup steps, then
	// jumps to noon inside the 09:00 to 17:00 window for the voting steps.
	current := time.Date(2025, time.June, 9, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	ts := newTestServer(t, clock)

	// Organization signs up and logs in.
	resp, _ := ts.do(t, http.MethodPost, "/v1/organizations", "", map[string]string{
		"name":           "Harbour Sailing Club",
		"email":          "admin@harbour.test",
		"contact_person": "Morgan Lee",
		"password":       "sail-away-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/v1/auth/organization/login", "", map[string]string{
		"email":    "admin@harbour.test",
		"password": "sail-away-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orgToken, _ := body["access_token"].(string)
	require.NotEmpty(t, orgToken)

	// Create a session with two candidates for the pinned voting day.
	resp, body = ts.do(t, http.MethodPost, "/v1/sessions", orgToken, map[string]any{
		"title":       "Commodore Election",
		"description": "Annual vote",
		"voting_date": "2025-06-10",
		"start_time":  "09:00",
		"end_time":    "17:00",
		"candidates": []map[string]string{
			{"full_name": "Priya Shah", "position": "Commodore"},
			{"full_name": "Sam Doyle", "position": "Commodore"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID, _ := body["id"].(string)
	require.NotEmpty(t, sessionID)

	// Upload the roster as a raw CSV body.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/sessions/"+sessionID+"/voters",
		strings.NewReader("email\nvoter@harbour.test\n"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+orgToken)
	uploadResp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer uploadResp.Body.Close()
	require.Equal(t, http.StatusCreated, uploadResp.StatusCode)

	var report struct {
		Created int `json:"created"`
		Rows    []struct {
			Code   string `json:"code"`
			Status string `json:"status"`
		} `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(uploadResp.Body).Decode(&report))
	require.Equal(t, 1, report.Created)
	voterCode := report.Rows[0].Code

	// From here on the clock sits inside the voting window.
	current = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	// Voter logs in with the code doubling as the PIN.
	resp, body = ts.do(t, http.MethodPost, "/v1/auth/voter/login", "", map[string]string{
		"code": voterCode,
		"pin":  voterCode,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	voterToken, _ := body["access_token"].(string)
	require.NotEmpty(t, voterToken)

	// Voter browses the ballot.
	listReq, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/sessions/"+sessionID+"/candidates", nil)
	require.NoError(t, err)
	listReq.Header.Set("Authorization", "Bearer "+voterToken)
	listResp, err := ts.Client().Do(listReq)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var candidates []struct {
		ID       string `json:"id"`
		FullName string `json:"full_name"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&candidates))
	require.Len(t, candidates, 2)

	// Issue the one-time vote token.
	resp, body = ts.do(t, http.MethodPost, "/v1/tokens", voterToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	voteToken, _ := body["vote_token"].(string)
	require.NotEmpty(t, voteToken)

	// A second issuance is a conflict.
	resp, _ = ts.do(t, http.MethodPost, "/v1/tokens", voterToken, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Cast the vote.
	resp, _ = ts.do(t, http.MethodPost, "/v1/votes", voterToken, map[string]string{
		"candidate_id": candidates[0].ID,
		"vote_token":   voteToken,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Reusing the token is a conflict.
	resp, _ = ts.do(t, http.MethodPost, "/v1/votes", voterToken, map[string]string{
		"candidate_id": candidates[0].ID,
		"vote_token":   voteToken,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Tally and audit from the organization side.
	resp, body = ts.do(t, http.MethodGet, "/v1/candidates/"+candidates[0].ID+"/tally", orgToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["votes"])

	resp, body = ts.do(t, http.MethodGet, "/v1/sessions/"+sessionID+"/audit", orgToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["clean"])
	require.Equal(t, float64(1), body["total_votes"])

	// The issuance email carried the plaintext token exactly once.
	msgs := ts.mail.Messages()
	require.NotEmpty(t, msgs)
	found := false
	for _, msg := range msgs {
		if strings.Contains(msg.Body, voteToken) {
			found = true
		}
	}
	require.True(t, found, "issued token should have been emailed")
}

func TestAuthorizationBoundaries(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC) }
	ts := newTestServer(t, now)

	t.Run("missing bearer token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/v1/sessions", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage bearer token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/v1/sessions", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("organization endpoints reject voter role", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/v1/organizations", "", map[string]string{
			"name":           "Boundary Club",
			"email":          "boundary@club.test",
			"contact_person": "Max",
			"password":       "pw-boundary",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		// A voter-role token signed with the same secret must not open
		// organization endpoints.
		signer := &jwtx.Signer{
			Secret:   []byte("test-secret"),
			Issuer:   "ballotd-test",
			Audience: "ballotd-test",
			TTL:      time.Hour,
		}
		voterJWT, err := signer.Mint("VTR-FAKE1", "some-voter-id", jwtx.RoleVoter)
		require.NoError(t, err)

		resp, _ = ts.do(t, http.MethodGet, "/v1/sessions", voterJWT, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		// And an organization token must not reach voter endpoints.
		orgResp, body := ts.do(t, http.MethodPost, "/v1/auth/organization/login", "", map[string]string{
			"email":    "boundary@club.test",
			"password": "pw-boundary",
		})
		require.Equal(t, http.StatusOK, orgResp.StatusCode)
		orgToken, _ := body["access_token"].(string)

		resp, _ = ts.do(t, http.MethodPost, "/v1/tokens", orgToken, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC) }
	ts := newTestServer(t, now)

	resp, body := ts.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = ts.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}
