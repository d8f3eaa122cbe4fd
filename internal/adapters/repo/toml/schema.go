package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	Name      string        `toml:"name"`
	ServerURL string        `toml:"server_url"`
	EnvType   string        `toml:"env_type"`
	UpdatedAt string        `toml:"updated_at,omitempty"`
	Episode   episodeSchema `toml:"episode"`
}

type episodeSchema struct {
	ID          string  `toml:"id"`
	Step        int     `toml:"step"`
	Terminated  bool    `toml:"terminated"`
	Truncated   bool    `toml:"truncated"`
	TotalReward float64 `toml:"total_reward"`
	StartedAt   string  `toml:"started_at,omitempty"`
}
