package ports

import (
	"context"
	"time"

	"github.com/bnema/studentgym/internal/domain"
)

// SessionRecord is the handle the CLI keeps between invocations to continue a remote episode.
type SessionRecord struct {
	Name      string
	ServerURL string
	EnvType   string
	Episode   domain.Episode
	UpdatedAt time.Time
}

type SessionRepository interface {
	GetByName(ctx context.Context, name string) (SessionRecord, error)
	List(ctx context.Context) ([]SessionRecord, error)
	Save(ctx context.Context, record SessionRecord) error
	Delete(ctx context.Context, name string) error
}
