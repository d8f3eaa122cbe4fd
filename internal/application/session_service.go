package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/studentgym/internal/domain"
	"github.com/bnema/studentgym/internal/ports"
)

const DefaultSessionName = "default"

// SessionService keeps the episode handle between CLI invocations.
type SessionService struct {
	repo  ports.SessionRepository
	clock ports.Clock
}

func NewSessionService(repo ports.SessionRepository, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{repo: repo, clock: clock}
}

func NormalizeSessionName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSessionName
	}
	return name
}

func (s *SessionService) Remember(ctx context.Context, name string, cfg domain.Config, episode domain.Episode) (ports.SessionRecord, error) {
	record := ports.SessionRecord{
		Name:      NormalizeSessionName(name),
		ServerURL: cfg.ServerURL,
		EnvType:   cfg.EnvType,
		Episode:   episode,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return ports.SessionRecord{}, fmt.Errorf("save session %q: %w", record.Name, err)
	}
	return record, nil
}

// Recall loads a handle and checks that it belongs to the configured server.
func (s *SessionService) Recall(ctx context.Context, name string, cfg domain.Config) (ports.SessionRecord, error) {
	name = NormalizeSessionName(name)
	record, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return ports.SessionRecord{}, fmt.Errorf("%w: session %q has no episode, run reset first", domain.ErrSession, name)
		}
		return ports.SessionRecord{}, fmt.Errorf("get session %q: %w", name, err)
	}
	if record.ServerURL != "" && strings.TrimRight(record.ServerURL, "/") != strings.TrimRight(cfg.ServerURL, "/") {
		return ports.SessionRecord{}, fmt.Errorf("%w: session %q belongs to %s, not %s", domain.ErrSession, name, record.ServerURL, cfg.ServerURL)
	}
	return record, nil
}

// Forget removes a handle. A missing handle is not an error.
func (s *SessionService) Forget(ctx context.Context, name string) error {
	name = NormalizeSessionName(name)
	if err := s.repo.Delete(ctx, name); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	return nil
}

func (s *SessionService) List(ctx context.Context) ([]ports.SessionRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return records, nil
}
