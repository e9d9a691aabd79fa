// Package server is the HTTP surface of the dashboard: the OAuth2 login
// flow, the guild list, the per-guild configuration page and the JSON save
// API, all behind server-side sessions.
package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/edwin961/dv-dragons-dashboard/internal/config"
	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	"github.com/edwin961/dv-dragons-dashboard/web"
)

type oauthClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	BotInviteURL(guildID string) string
}

type userClient interface {
	FetchProfile(ctx context.Context, accessToken string) (*domain.UserProfile, error)
	FetchGuilds(ctx context.Context, accessToken string) ([]domain.GuildSummary, error)
}

type botClient interface {
	GuildIDs(ctx context.Context) (map[string]bool, error)
	Channels(ctx context.Context, guildID string) ([]domain.Channel, error)
	Roles(ctx context.Context, guildID string) ([]domain.Role, error)
}

type sessionStore interface {
	Create(ctx context.Context, accessToken string, user domain.UserProfile) (uuid.UUID, error)
	Get(ctx context.Context, sid uuid.UUID) (*domain.Session, error)
	Delete(ctx context.Context, sid uuid.UUID) error
}

type welcomeStore interface {
	Upsert(ctx context.Context, cfg domain.WelcomeConfig) error
	GetByGuildID(ctx context.Context, guildID string) (*domain.WelcomeConfig, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	oauth    oauthClient
	users    userClient
	bot      botClient
	sessions sessionStore
	welcome  welcomeStore

	cookieStore  *sessions.CookieStore
	templates    *template.Template
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, oauth oauthClient, users userClient, bot botClient, sessionRepo sessionStore, welcomeRepo welcomeStore, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		oauth:        oauth,
		users:        users,
		bot:          bot,
		sessions:     sessionRepo,
		welcome:      welcomeRepo,
		cookieStore:  setupCookieStore(cfg),
		templates:    templates,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Cookie session keys. The cookie only ever carries the opaque session ID
// and the in-flight OAuth state; tokens live server-side in Redis.
const (
	sessionName          = "dvdragons-session"
	sessionKeySID        = "sid"
	sessionKeyOAuthState = "oauth_state"
	contextKeySession    = "session"
)

func setupCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// sessionID reads the opaque session ID out of the browser cookie.
func (s *Server) sessionID(c echo.Context) (uuid.UUID, bool) {
	cookieSession, err := s.cookieStore.Get(c.Request(), sessionName)
	if err != nil {
		return uuid.Nil, false
	}
	sidStr, ok := cookieSession.Values[sessionKeySID].(string)
	if !ok {
		return uuid.Nil, false
	}
	sid, err := uuid.Parse(sidStr)
	if err != nil {
		return uuid.Nil, false
	}
	return sid, true
}

// destroySession removes the server-side session and expires the cookie.
// Best effort: a failed Redis delete still leaves the cookie dead.
func (s *Server) destroySession(c echo.Context, sid uuid.UUID) {
	if err := s.sessions.Delete(c.Request().Context(), sid); err != nil {
		slog.Error("Failed to delete session", "session_id", sid, "error", err)
	}
	s.expireCookie(c)
}

func (s *Server) expireCookie(c echo.Context) {
	cookieSession, err := s.cookieStore.Get(c.Request(), sessionName)
	if err != nil {
		cookieSession, err = s.cookieStore.New(c.Request(), sessionName)
		if err != nil {
			slog.Error("Failed to create session cookie for expiry", "error", err)
			return
		}
	}
	cookieSession.Options.MaxAge = -1
	if err := cookieSession.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to expire session cookie", "error", err)
	}
}
