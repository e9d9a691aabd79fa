package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
	apperrors "github.com/edwin961/dv-dragons-dashboard/internal/errors"
	"github.com/edwin961/dv-dragons-dashboard/internal/metrics"
)

// requireAuth resolves the cookie's session ID against the server-side
// session store. Anything short of a live session sends the browser back to
// the login entry point; expiry and logout look identical from here.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sid, ok := s.sessionID(c)
		if !ok {
			return c.Redirect(http.StatusFound, "/")
		}

		session, err := s.sessions.Get(c.Request().Context(), sid)
		if err != nil {
			s.expireCookie(c)
			return c.Redirect(http.StatusFound, "/")
		}

		c.Set(contextKeySession, session)
		return next(c)
	}
}

// isAuthenticated checks whether the request carries a live session.
func (s *Server) isAuthenticated(c echo.Context) bool {
	sid, ok := s.sessionID(c)
	if !ok {
		return false
	}
	_, err := s.sessions.Get(c.Request().Context(), sid)
	return err == nil
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) handleLanding(c echo.Context) error {
	if s.isAuthenticated(c) {
		if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}
	return s.renderTemplate(c, "landing.html", nil)
}

func (s *Server) handleLogin(c echo.Context) error {
	if s.isAuthenticated(c) {
		if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	state, err := generateOAuthState()
	if err != nil {
		return apperrors.InternalError("failed to generate OAuth state", err)
	}

	cookieSession, err := s.cookieStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Error("Failed to get session for OAuth state", "error", err)
	}

	cookieSession.Values[sessionKeyOAuthState] = state
	if err := cookieSession.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save OAuth state session", err)
	}

	if err := c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state)); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleCallback(c echo.Context) error {
	// Validate before touching the network: an absent code means the user
	// cancelled or the provider redirected with an error.
	code := c.QueryParam("code")
	if code == "" {
		return apperrors.ValidationError("missing code parameter")
	}

	cookieSession, err := s.cookieStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.ValidationError("invalid session")
	}

	expectedState, ok := cookieSession.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return apperrors.ValidationError("missing OAuth state")
	}
	if c.QueryParam("state") != expectedState {
		return apperrors.ValidationError("invalid OAuth state")
	}
	delete(cookieSession.Values, sessionKeyOAuthState)

	ctx := c.Request().Context()

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		// The provider's error description goes into the response message;
		// a consumed code cannot be retried, the user must restart the flow.
		return apperrors.ExternalError("failed to authenticate with Discord: "+err.Error(), err)
	}

	profile, err := s.users.FetchProfile(ctx, token)
	if err != nil {
		return apperrors.ExternalError("failed to fetch user profile", err)
	}

	// A pre-login session ID must not survive authentication. Drop any
	// server-side session the old cookie pointed at before minting the new one.
	if oldSID, ok := s.sessionID(c); ok {
		if err := s.sessions.Delete(ctx, oldSID); err != nil {
			slog.Error("Failed to delete pre-login session", "session_id", oldSID, "error", err)
		}
	}

	sid, err := s.sessions.Create(ctx, token, *profile)
	if err != nil {
		return apperrors.InternalError("failed to create session", err).WithField("user_id", profile.ID)
	}

	cookieSession.Values[sessionKeySID] = sid.String()
	if err := cookieSession.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session cookie", err)
	}

	metrics.LoginsTotal.Inc()
	slog.InfoContext(ctx, "User logged in", "user_id", profile.ID, "username", profile.Username)

	if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	session, ok := c.Get(contextKeySession).(*domain.Session)
	if !ok {
		return apperrors.InternalError("missing session in context", nil)
	}

	s.destroySession(c, session.ID)

	slog.InfoContext(c.Request().Context(), "User logged out", "user_id", session.User.ID)

	if err := c.Redirect(http.StatusFound, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
