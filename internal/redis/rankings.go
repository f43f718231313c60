// Package redis stores the shared global-rankings document: the best
// recorded time per level across all players.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/player-progress/internal/config"
	"github.com/player-progress/internal/domain"
	"github.com/redis/go-redis/v9"
)

const rankingsKey = "rankings:global"

// maxRetries bounds the optimistic retry loop on WATCH conflicts.
const maxRetries = 5

// RankingStore provides Redis-based global ranking operations.
type RankingStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRankingStore creates a new Redis ranking store.
func NewRankingStore(cfg *config.RedisConfig, logger *slog.Logger) (*RankingStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RankingStore{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection.
func (s *RankingStore) Close() error {
	return s.client.Close()
}

// All returns the full rankings snapshot, keyed by level index.
func (s *RankingStore) All(ctx context.Context) (map[int]domain.RankingEntry, error) {
	raw, err := s.client.HGetAll(ctx, rankingsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading rankings: %w", err)
	}

	rankings := make(map[int]domain.RankingEntry, len(raw))
	for field, value := range raw {
		index, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		var entry domain.RankingEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			s.logger.Warn("skipping malformed ranking entry", "level", field, "error", err)
			continue
		}
		rankings[index] = entry
	}
	return rankings, nil
}

// UpdateIfBetter writes the candidate entry for a level only if its time
// is strictly better than the stored one (no stored entry counts as
// infinitely slow). The read-compare-write runs under WATCH so two
// clients racing to report a record cannot both win; on a conflicting
// concurrent write the comparison is retried against the fresh value.
// Returns whether the entry was written.
func (s *RankingStore) UpdateIfBetter(ctx context.Context, levelIndex int, candidate domain.RankingEntry) (bool, error) {
	field := strconv.Itoa(levelIndex)
	updated := false

	txn := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, rankingsKey, field).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("reading current record: %w", err)
		}

		if !errors.Is(err, redis.Nil) {
			var stored domain.RankingEntry
			if err := json.Unmarshal([]byte(current), &stored); err == nil {
				if !stored.Better(candidate.BestTime) {
					updated = false
					return nil
				}
			}
		}

		payload, err := json.Marshal(candidate)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rankingsKey, field, payload)
			return nil
		})
		if err != nil {
			return err
		}
		updated = true
		return nil
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txn, rankingsKey)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("updating global record: %w", err)
	}
	return false, fmt.Errorf("updating global record: %w", redis.TxFailedErr)
}
