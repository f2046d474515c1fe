package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/internal/dicey/store/drivers/sqlite"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/jwtx"
	"github.com/diceydecisions/dicey/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testCronSecret = "cron-secret-for-tests"

type capturedMail struct {
	to   string
	body string
}

type captureMailer struct {
	mails []capturedMail
}

func (m *captureMailer) Send(_ context.Context, to, _, body string) error {
	m.mails = append(m.mails, capturedMail{to: to, body: body})
	return nil
}

type testEnv struct {
	server *httptest.Server
	store  store.Store
	mailer *captureMailer
	rooms  *service.RoomService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	newSigner := func(use string) *jwtx.HS256 {
		s, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef-"+use), "dicey-test", use)
		require.NoError(t, err)
		return s
	}
	access := newSigner(jwtx.UseAccess)

	mailer := &captureMailer{}
	account := &service.AccountService{
		Store:              st,
		AccessSigner:       access,
		RefreshSigner:      newSigner(jwtx.UseRefresh),
		VerificationSigner: newSigner(jwtx.UseVerification),
		Mailer:             mailer,
		AccessTTL:          jwtx.DefaultAccessTokenTTL,
		RefreshTTL:         jwtx.DefaultRefreshTokenTTL,
		VerificationTTL:    jwtx.DefaultVerificationTokenTTL,
		PendingTTL:         24 * time.Hour,
		VerifyBaseURL:      "http://localhost:3000/verify",
	}

	rooms := &service.RoomService{Store: st, InactivityWindow: 30 * time.Minute}

	router := NewRouter(access, "test", st, slogx.New(slogx.Config{Service: "dicey", Level: "error", Format: "text"}))
	router.AccountService = account
	router.RoomService = rooms
	router.OptionService = &service.OptionService{Store: st}
	router.VoteService = &service.VoteService{Store: st}
	router.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	router.CronSecret = testCronSecret
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: st, mailer: mailer, rooms: rooms}
}

// do issues a JSON request, optionally authenticated, and decodes the
// response into out when it is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup registers, verifies and returns the access token for a fresh user.
func (e *testEnv) signup(t *testing.T, name, email string) string {
	t.Helper()

	code := e.do(t, http.MethodPost, "/v1/auth/register", "",
		api.RegisterRequest{Name: name, Email: email, Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, code)

	body := e.mailer.mails[len(e.mailer.mails)-1].body
	i := strings.Index(body, "?token=")
	require.Greater(t, i, 0)
	token := body[i+len("?token="):]
	if j := strings.IndexAny(token, " \n"); j >= 0 {
		token = token[:j]
	}

	var auth api.AuthResponse
	code = e.do(t, http.MethodPost, "/v1/auth/verify", "", api.VerifyEmailRequest{Token: token}, &auth)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func TestFullDecisionFlow(t *testing.T) {
	env := newTestEnv(t)

	alice := env.signup(t, "Alice", "alice@example.com")
	bob := env.signup(t, "Bob", "bob@example.com")

	// Alice creates a room.
	var room api.Room
	code := env.do(t, http.MethodPost, "/v1/rooms", alice,
		api.CreateRoomRequest{Title: "Friday dinner"}, &room)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, room.Code)

	// Bob joins by code.
	var joined api.Room
	code = env.do(t, http.MethodPost, "/v1/rooms/join", bob,
		api.JoinRoomRequest{Code: room.Code}, &joined)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, room.ID, joined.ID)

	// Both submit options.
	var optA, optB api.Option
	code = env.do(t, http.MethodPost, "/v1/options", alice,
		api.CreateOptionRequest{RoomID: room.ID, Text: "Pizza"}, &optA)
	require.Equal(t, http.StatusCreated, code)
	code = env.do(t, http.MethodPost, "/v1/options", bob,
		api.CreateOptionRequest{RoomID: room.ID, Text: "Sushi"}, &optB)
	require.Equal(t, http.StatusCreated, code)

	// Alice opens voting.
	open := true
	code = env.do(t, http.MethodPatch, "/v1/rooms/"+room.ID, alice,
		api.UpdateRoomRequest{VotingOpen: &open}, nil)
	require.Equal(t, http.StatusOK, code)

	// Casting for your own option fails, for the other's succeeds.
	var errBody map[string]string
	code = env.do(t, http.MethodPost, "/v1/votes", bob,
		api.CastVoteRequest{RoomID: room.ID, OptionID: optB.ID}, &errBody)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "validation_error", errBody["error"])

	code = env.do(t, http.MethodPost, "/v1/votes", bob,
		api.CastVoteRequest{RoomID: room.ID, OptionID: optA.ID}, nil)
	require.Equal(t, http.StatusOK, code)

	// Bob sees the total but not the split while voting is open.
	var counts api.VoteCountsResponse
	code = env.do(t, http.MethodGet, "/v1/votes/count/"+room.ID, bob, nil, &counts)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, counts.TotalVotes)
	require.True(t, counts.UserVoted)
	require.Nil(t, counts.VoteCounts)

	// Only the creator may finalize.
	code = env.do(t, http.MethodPost, "/v1/rooms/"+room.ID+"/finalize", bob, api.FinalizeRequest{}, nil)
	require.Equal(t, http.StatusForbidden, code)

	var final api.FinalizeResponse
	code = env.do(t, http.MethodPost, "/v1/rooms/"+room.ID+"/finalize", alice, api.FinalizeRequest{}, &final)
	require.Equal(t, http.StatusOK, code)
	require.False(t, final.IsTie)
	require.Equal(t, optA.ID, final.WinningOption.ID)
	require.NotNil(t, final.Room.FinalDecision)

	// The decided room shows up with its decision in the detail view.
	var detail api.RoomDetailResponse
	code = env.do(t, http.MethodGet, "/v1/rooms/"+room.ID, bob, nil, &detail)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, detail.Room.FinalDecision)
	require.Equal(t, optA.ID, detail.Room.FinalDecision.OptionID)
	require.Len(t, detail.Votes, 1)

	// And in both participants' decision history.
	var past []api.PastRoom
	code = env.do(t, http.MethodGet, "/v1/rooms/past", bob, nil, &past)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, past, 1)
	require.Equal(t, room.ID, past[0].ID)
	require.Equal(t, "Pizza", past[0].DecidedOptionText)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	code := env.do(t, http.MethodGet, "/v1/rooms", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code = env.do(t, http.MethodGet, "/v1/auth/me", "not-a-token", nil, nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestAccessTokenCookieAccepted(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Carol", "carol@example.com")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/v1/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: token})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user api.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	require.Equal(t, "carol@example.com", user.Email)
}

func TestSweepEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "Alice", "alice@example.com")

	var room api.Room
	code := env.do(t, http.MethodPost, "/v1/rooms", alice, api.CreateRoomRequest{Title: "Idle room"}, &room)
	require.Equal(t, http.StatusCreated, code)

	// Backdate the room so the sweep picks it up.
	stale := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.store.Rooms().TouchActivity(context.Background(), room.ID, stale))

	t.Run("wrong secret rejected", func(t *testing.T) {
		code := env.do(t, http.MethodPost, "/v1/rooms/sweep", "wrong-secret", nil, nil)
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("sweep closes the idle room", func(t *testing.T) {
		var out api.SweepResponse
		code := env.do(t, http.MethodPost, "/v1/rooms/sweep", testCronSecret, nil, &out)
		require.Equal(t, http.StatusOK, code)
		require.EqualValues(t, 1, out.RoomsClosed)

		got, err := env.store.Rooms().GetRoomByID(context.Background(), room.ID)
		require.NoError(t, err)
		require.False(t, got.IsOpen)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var live api.HealthResponse
	code := env.do(t, http.MethodGet, "/livez", "", nil, &live)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", live.Status)

	var ready api.HealthResponse
	code = env.do(t, http.MethodGet, "/readyz", "", nil, &ready)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestVerifyLinkReuse(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Dave", "dave@example.com")

	body := env.mailer.mails[len(env.mailer.mails)-1].body
	i := strings.Index(body, "?token=")
	require.Greater(t, i, 0)
	token := body[i+len("?token="):]
	if j := strings.IndexAny(token, " \n"); j >= 0 {
		token = token[:j]
	}

	// A second click on the same link logs in instead of erroring.
	var auth api.AuthResponse
	code := env.do(t, http.MethodPost, "/v1/auth/verify", "", api.VerifyEmailRequest{Token: token}, &auth)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, auth.AccessToken)
	require.NotEmpty(t, auth.RefreshToken)
	require.Equal(t, "dave@example.com", auth.User.Email)
}

func TestLoginBeforeVerification(t *testing.T) {
	env := newTestEnv(t)

	code := env.do(t, http.MethodPost, "/v1/auth/register", "",
		api.RegisterRequest{Name: "Grace", Email: "grace@example.com", Password: "password123"}, nil)
	require.Equal(t, http.StatusCreated, code)

	var errBody map[string]string
	code = env.do(t, http.MethodPost, "/v1/auth/login", "",
		api.LoginRequest{Email: "grace@example.com", Password: "password123"}, &errBody)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "needs_verification", errBody["error"])
}
