package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/edwin961/dv-dragons-dashboard/internal/config"
	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	apperrors "github.com/edwin961/dv-dragons-dashboard/internal/errors"
)

// --- Mock implementations ---

type mockOAuthClient struct {
	authCodeURLFn  func(state string) string
	exchangeFn     func(ctx context.Context, code string) (string, error)
	botInviteURLFn func(guildID string) string

	exchangeCalls int
}

func (m *mockOAuthClient) AuthCodeURL(state string) string {
	if m.authCodeURLFn != nil {
		return m.authCodeURLFn(state)
	}
	return "https://discord.test/authorize?state=" + state
}

func (m *mockOAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	m.exchangeCalls++
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code)
	}
	return "", errors.New("not implemented")
}

func (m *mockOAuthClient) BotInviteURL(guildID string) string {
	if m.botInviteURLFn != nil {
		return m.botInviteURLFn(guildID)
	}
	return "https://discord.test/invite?guild_id=" + guildID
}

type mockUserClient struct {
	fetchProfileFn func(ctx context.Context, accessToken string) (*domain.UserProfile, error)
	fetchGuildsFn  func(ctx context.Context, accessToken string) ([]domain.GuildSummary, error)
}

func (m *mockUserClient) FetchProfile(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	if m.fetchProfileFn != nil {
		return m.fetchProfileFn(ctx, accessToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserClient) FetchGuilds(ctx context.Context, accessToken string) ([]domain.GuildSummary, error) {
	if m.fetchGuildsFn != nil {
		return m.fetchGuildsFn(ctx, accessToken)
	}
	return nil, errors.New("not implemented")
}

type mockBotClient struct {
	guildIDsFn func(ctx context.Context) (map[string]bool, error)
	channelsFn func(ctx context.Context, guildID string) ([]domain.Channel, error)
	rolesFn    func(ctx context.Context, guildID string) ([]domain.Role, error)
}

func (m *mockBotClient) GuildIDs(ctx context.Context) (map[string]bool, error) {
	if m.guildIDsFn != nil {
		return m.guildIDsFn(ctx)
	}
	return map[string]bool{}, nil
}

func (m *mockBotClient) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	if m.channelsFn != nil {
		return m.channelsFn(ctx, guildID)
	}
	return nil, nil
}

func (m *mockBotClient) Roles(ctx context.Context, guildID string) ([]domain.Role, error) {
	if m.rolesFn != nil {
		return m.rolesFn(ctx, guildID)
	}
	return nil, nil
}

type mockSessionStore struct {
	createFn func(ctx context.Context, accessToken string, user domain.UserProfile) (uuid.UUID, error)
	getFn    func(ctx context.Context, sid uuid.UUID) (*domain.Session, error)
	deleteFn func(ctx context.Context, sid uuid.UUID) error

	deletedIDs []uuid.UUID
}

func (m *mockSessionStore) Create(ctx context.Context, accessToken string, user domain.UserProfile) (uuid.UUID, error) {
	if m.createFn != nil {
		return m.createFn(ctx, accessToken, user)
	}
	return uuid.New(), nil
}

func (m *mockSessionStore) Get(ctx context.Context, sid uuid.UUID) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sid)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *mockSessionStore) Delete(ctx context.Context, sid uuid.UUID) error {
	m.deletedIDs = append(m.deletedIDs, sid)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, sid)
	}
	return nil
}

type mockWelcomeStore struct {
	upsertFn func(ctx context.Context, cfg domain.WelcomeConfig) error
	getFn    func(ctx context.Context, guildID string) (*domain.WelcomeConfig, error)

	upserted []domain.WelcomeConfig
}

func (m *mockWelcomeStore) Upsert(ctx context.Context, cfg domain.WelcomeConfig) error {
	m.upserted = append(m.upserted, cfg)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, cfg)
	}
	return nil
}

func (m *mockWelcomeStore) GetByGuildID(ctx context.Context, guildID string) (*domain.WelcomeConfig, error) {
	if m.getFn != nil {
		return m.getFn(ctx, guildID)
	}
	return nil, domain.ErrConfigNotFound
}

// --- Test helpers ---

type testMocks struct {
	oauth    *mockOAuthClient
	users    *mockUserClient
	bot      *mockBotClient
	sessions *mockSessionStore
	welcome  *mockWelcomeStore
}

func newTestServer(t *testing.T) (*Server, *testMocks) {
	t.Helper()

	tmpl := template.Must(template.New("landing.html").Parse(`Landing, log in with Discord`))
	template.Must(tmpl.New("servers.html").Parse(
		`Servers for {{.Username}}{{range .Guilds}} [{{.Name}}|{{.ActionURL}}|{{.ActionLabel}}]{{else}} No servers found{{end}}`))
	template.Must(tmpl.New("dashboard.html").Parse(
		`Dashboard {{.GuildName}}{{range .Channels}} #{{.Name}}{{end}}{{range .Roles}} @{{.Name}}{{end}} header={{.Config.Header}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	mocks := &testMocks{
		oauth:    &mockOAuthClient{},
		users:    &mockUserClient{},
		bot:      &mockBotClient{},
		sessions: &mockSessionStore{},
		welcome:  &mockWelcomeStore{},
	}

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			AppEnv:        "development",
			Port:          "3000",
			SessionMaxAge: time.Hour,
		},
		oauth:       mocks.oauth,
		users:       mocks.users,
		bot:         mocks.bot,
		sessions:    mocks.sessions,
		welcome:     mocks.welcome,
		cookieStore: store,
		templates:   tmpl,
		startTime:   time.Now(),
	}

	srv.registerRoutes()

	return srv, mocks
}

func decodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

// callHandler wraps a handler with the error middleware, matching production behavior.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

// authenticate installs a live session: the mock store recognises the ID and
// the request cookie references it.
func authenticate(t *testing.T, srv *Server, mocks *testMocks, req *http.Request, rec *httptest.ResponseRecorder) *domain.Session {
	t.Helper()

	sid := uuid.New()
	session := &domain.Session{
		ID:          sid,
		AccessToken: "access-token",
		User: domain.UserProfile{
			ID:        "user-1",
			Username:  "tester",
			AvatarURL: "https://cdn.discordapp.com/avatars/user-1/abc.png",
		},
		CreatedAt: time.Now(),
	}

	mocks.sessions.getFn = func(_ context.Context, got uuid.UUID) (*domain.Session, error) {
		if got == sid {
			return session, nil
		}
		return nil, domain.ErrSessionNotFound
	}

	cookieSession, err := srv.cookieStore.Get(req, sessionName)
	require.NoError(t, err)
	cookieSession.Values[sessionKeySID] = sid.String()
	require.NoError(t, cookieSession.Save(req, rec))

	return session
}
