package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/edwin961/dv-dragons-dashboard/internal/crypto"
	"github.com/edwin961/dv-dragons-dashboard/internal/domain"
)

// sessionRecord is the JSON shape stored under session:<uuid>. The access
// token is sealed with the configured TokenCipher before it gets here.
type sessionRecord struct {
	SealedToken string    `json:"sealed_token"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type SessionRepo struct {
	rdb    *goredis.Client
	cipher crypto.TokenCipher
	clock  clockwork.Clock
	ttl    time.Duration
}

func NewSessionRepo(rdb *goredis.Client, cipher crypto.TokenCipher, clock clockwork.Clock, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, cipher: cipher, clock: clock, ttl: ttl}
}

// Create stores a new session and returns its ID. The Redis TTL bounds the
// credential lifetime; there is no refresh flow, expiry means re-login.
func (s *SessionRepo) Create(ctx context.Context, accessToken string, user domain.UserProfile) (uuid.UUID, error) {
	sealed, err := s.cipher.Seal(accessToken)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to seal access token: %w", err)
	}

	record := sessionRecord{
		SealedToken: sealed,
		UserID:      user.ID,
		Username:    user.Username,
		AvatarURL:   user.AvatarURL,
		CreatedAt:   s.clock.Now().UTC(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	sid := uuid.New()
	if err := s.rdb.Set(ctx, sessionKey(sid), payload, s.ttl).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store session: %w", err)
	}

	return sid, nil
}

// Get loads a session by ID. Expired and unknown sessions both come back as
// ErrSessionNotFound; callers redirect to the login entry point either way.
func (s *SessionRepo) Get(ctx context.Context, sid uuid.UUID) (*domain.Session, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(sid)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	token, err := s.cipher.Open(record.SealedToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open access token: %w", err)
	}

	return &domain.Session{
		ID:          sid,
		AccessToken: token,
		User: domain.UserProfile{
			ID:        record.UserID,
			Username:  record.Username,
			AvatarURL: record.AvatarURL,
		},
		CreatedAt: record.CreatedAt,
	}, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionRepo) Delete(ctx context.Context, sid uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(sid uuid.UUID) string {
	return "session:" + sid.String()
}
