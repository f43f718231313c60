// Package postgres stores each player's profile as a schema-less JSONB
// document and keeps the global username reservation index. Profile writes
// are merge-patches: only the named fields are overwritten, untouched
// fields on the stored document are preserved.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/player-progress/internal/config"
	"github.com/player-progress/internal/domain"
)

// Repository provides PostgreSQL-based profile document access.
type Repository struct {
	pool       *pgxpool.Pool
	levelCount int
	logger     *slog.Logger
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(cfg *config.PostgresConfig, levelCount int, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:       pool,
		levelCount: levelCount,
		logger:     logger,
	}, nil
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations.
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		// Recursive merge of two jsonb objects; scalars and arrays on the
		// right side win, objects merge key by key.
		`CREATE OR REPLACE FUNCTION jsonb_deep_merge(a jsonb, b jsonb)
		RETURNS jsonb LANGUAGE sql IMMUTABLE AS $$
		SELECT CASE
			WHEN jsonb_typeof(a) = 'object' AND jsonb_typeof(b) = 'object' THEN
				(SELECT jsonb_object_agg(
					COALESCE(ka, kb),
					CASE
						WHEN va IS NULL THEN vb
						WHEN vb IS NULL THEN va
						ELSE jsonb_deep_merge(va, vb)
					END)
				FROM jsonb_each(a) AS e1(ka, va)
				FULL JOIN jsonb_each(b) AS e2(kb, vb) ON ka = kb)
			ELSE b
		END
		$$`,
		`CREATE TABLE IF NOT EXISTS player_profiles (
			uid VARCHAR(64) PRIMARY KEY,
			doc JSONB NOT NULL DEFAULT '{}'::jsonb,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS usernames (
			name VARCHAR(32) PRIMARY KEY,
			uid VARCHAR(64) NOT NULL,
			reserved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usernames_uid ON usernames(uid)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// profileDoc mirrors the stored document. Pointer fields distinguish
// absent fields, which take defaults on read.
type profileDoc struct {
	Username            *string             `json:"username"`
	Coins               *int                `json:"coins"`
	TotalCollectedCoins *int                `json:"totalCollectedCoins"`
	IsSupporter         *bool               `json:"isSupporter"`
	CurrentSkin         *int                `json:"currentSkin"`
	UnlockedSkins       []int               `json:"unlockedSkins"`
	Levels              map[string]levelDoc `json:"levels"`
	GameEnded           *bool               `json:"gameEnded"`
	TotalPlayedTime     *float64            `json:"totalPlayedTime"`
}

type levelDoc struct {
	Unlocked        *bool    `json:"unlocked"`
	Stars           *int     `json:"stars"`
	BestTime        *float64 `json:"bestTime"`
	Tries           *int     `json:"tries"`
	TrophyCollected *bool    `json:"trophyCollected"`
}

// Load reads the full profile snapshot for a user. Absent fields take
// defaults; a missing document returns domain.ErrProfileNotFound.
func (r *Repository) Load(ctx context.Context, uid string) (*domain.PlayerProfile, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM player_profiles WHERE uid = $1`, uid).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	var doc profileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding profile document: %w", err)
	}

	profile := domain.NewProfile(r.levelCount)
	if doc.Username != nil {
		profile.Username = *doc.Username
	}
	if doc.Coins != nil {
		profile.Coins = *doc.Coins
	}
	if doc.TotalCollectedCoins != nil {
		profile.TotalCollectedCoins = *doc.TotalCollectedCoins
	}
	if doc.IsSupporter != nil {
		profile.IsSupporter = *doc.IsSupporter
	}
	if doc.CurrentSkin != nil {
		profile.CurrentSkinID = *doc.CurrentSkin
	}
	if doc.UnlockedSkins != nil {
		profile.UnlockedSkinIDs = doc.UnlockedSkins
	}
	if doc.GameEnded != nil {
		profile.GameEnded = *doc.GameEnded
	}
	if doc.TotalPlayedTime != nil {
		profile.TotalPlayedTime = *doc.TotalPlayedTime
	}
	for key, ld := range doc.Levels {
		index, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		level := profile.Level(index)
		if level == nil {
			continue
		}
		if ld.Unlocked != nil {
			level.Unlocked = *ld.Unlocked
		}
		if ld.Stars != nil {
			level.Stars = *ld.Stars
		}
		if ld.BestTime != nil {
			level.BestTime = *ld.BestTime
		}
		if ld.Tries != nil {
			level.Tries = *ld.Tries
		}
		if ld.TrophyCollected != nil {
			level.TrophyCollected = *ld.TrophyCollected
		}
	}

	profile.Normalize(r.levelCount)
	return profile, nil
}

// Apply merges a partial update into the stored document, creating the
// document on first write.
func (r *Repository) Apply(ctx context.Context, uid string, patch domain.ProfilePatch) error {
	if patch.IsEmpty() {
		return nil
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}

	query := `
		INSERT INTO player_profiles (uid, doc, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (uid)
		DO UPDATE SET doc = jsonb_deep_merge(player_profiles.doc, $2), updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.pool.Exec(ctx, query, uid, data); err != nil {
		return fmt.Errorf("applying profile patch: %w", err)
	}
	return nil
}

// Available reports whether no reservation exists for the name.
func (r *Repository) Available(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM usernames WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username availability: %w", err)
	}
	return !exists, nil
}

// Reserve claims the name for uid. The insert itself is the atomicity
// point, so two clients racing for the same name cannot both succeed;
// re-reserving a name you already own is a no-op.
func (r *Repository) Reserve(ctx context.Context, name, uid string) error {
	query := `
		INSERT INTO usernames (name, uid)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET uid = EXCLUDED.uid
		WHERE usernames.uid = EXCLUDED.uid
	`
	result, err := r.pool.Exec(ctx, query, name, uid)
	if err != nil {
		return fmt.Errorf("reserving username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNameTaken
	}
	return nil
}
