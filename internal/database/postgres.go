package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubedash/tubedash/internal/config"
	"github.com/tubedash/tubedash/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg *config.PostgresConfig) (*PostgresDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}

	if err := db.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

func (p *PostgresDB) createTables(ctx context.Context) error {
	createKeyStatusType := `
		DO $$ BEGIN
			CREATE TYPE key_status AS ENUM ('valid', 'invalid', 'checking', 'quota_exceeded', 'unknown');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`

	if _, err := p.pool.Exec(ctx, createKeyStatusType); err != nil {
		return fmt.Errorf("failed to create key_status type: %w", err)
	}

	createMovieStatusType := `
		DO $$ BEGIN
			CREATE TYPE movie_status AS ENUM ('planned', 'filming', 'editing', 'published');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`

	if _, err := p.pool.Exec(ctx, createMovieStatusType); err != nil {
		return fmt.Errorf("failed to create movie_status type: %w", err)
	}

	createKeysTable := `
		CREATE TABLE IF NOT EXISTS api_keys (
			key_value VARCHAR(255) PRIMARY KEY,
			status key_status DEFAULT 'unknown',
			daily_usage INTEGER DEFAULT 0,
			last_used_date VARCHAR(10) DEFAULT '',
			error_message TEXT DEFAULT '',
			position INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_api_keys_position ON api_keys(position);
	`

	if _, err := p.pool.Exec(ctx, createKeysTable); err != nil {
		return fmt.Errorf("failed to create api_keys table: %w", err)
	}

	createChannelsTable := `
		CREATE TABLE IF NOT EXISTS channels (
			channel_id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(500) NOT NULL,
			thumbnail_url VARCHAR(1000) DEFAULT '',
			subscriber_count VARCHAR(32) DEFAULT '0',
			view_count VARCHAR(32) DEFAULT '0',
			video_count VARCHAR(32) DEFAULT '0',
			published_at VARCHAR(40) DEFAULT '',
			uploads_playlist_id VARCHAR(64) DEFAULT '',
			status VARCHAR(20) DEFAULT 'active',
			monetizable BOOLEAN DEFAULT FALSE,
			engagement_ratio DOUBLE PRECISION DEFAULT 0,
			newest_video JSONB,
			oldest_video JSONB,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_channels_updated_at ON channels(updated_at DESC);
	`

	if _, err := p.pool.Exec(ctx, createChannelsTable); err != nil {
		return fmt.Errorf("failed to create channels table: %w", err)
	}

	createMoviesTable := `
		CREATE TABLE IF NOT EXISTS movies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title VARCHAR(500) NOT NULL,
			status movie_status DEFAULT 'planned',
			channel_id VARCHAR(64) DEFAULT '',
			notes TEXT DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_movies_status ON movies(status);
		CREATE INDEX IF NOT EXISTS idx_movies_channel_id ON movies(channel_id);
	`

	if _, err := p.pool.Exec(ctx, createMoviesTable); err != nil {
		return fmt.Errorf("failed to create movies table: %w", err)
	}

	return nil
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresDB) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

// --- API key persistence ---

// ListAPIKeys returns the persisted key list in pool order.
func (p *PostgresDB) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key_value, status, daily_usage, last_used_date, error_message
		 FROM api_keys ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.Value, &k.Status, &k.DailyUsage, &k.LastUsedDate, &k.Error); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ReplaceAPIKeys persists a new key list with replace-then-insert semantics.
// This is the settings-save path: errors are returned to the caller.
func (p *PostgresDB) ReplaceAPIKeys(ctx context.Context, keys []models.APIKey) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM api_keys`); err != nil {
		return fmt.Errorf("failed to clear api keys: %w", err)
	}

	for i, k := range keys {
		_, err := tx.Exec(ctx,
			`INSERT INTO api_keys (key_value, status, daily_usage, last_used_date, error_message, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			k.Value, k.Status, k.DailyUsage, k.LastUsedDate, k.Error, i)
		if err != nil {
			return fmt.Errorf("failed to insert api key: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecordKeyUsage is the fire-and-forget usage sync consumed by the API
// client after each successful call.
func (p *PostgresDB) RecordKeyUsage(ctx context.Context, value string, dailyUsage int, lastUsedDate string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE api_keys SET daily_usage = $2, last_used_date = $3 WHERE key_value = $1`,
		value, dailyUsage, lastUsedDate)
	if err != nil {
		return fmt.Errorf("failed to record key usage: %w", err)
	}
	return nil
}

// UpdateAPIKeyStatus persists a validation outcome.
func (p *PostgresDB) UpdateAPIKeyStatus(ctx context.Context, value string, status models.KeyStatus, errMsg string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE api_keys SET status = $2, error_message = $3 WHERE key_value = $1`,
		value, status, errMsg)
	if err != nil {
		return fmt.Errorf("failed to update key status: %w", err)
	}
	return nil
}

// --- Channel persistence ---

func (p *PostgresDB) UpsertChannel(ctx context.Context, ch *models.ChannelStats) error {
	newest, err := marshalVideo(ch.NewestVideo)
	if err != nil {
		return err
	}
	oldest, err := marshalVideo(ch.OldestVideo)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO channels (channel_id, title, thumbnail_url, subscriber_count, view_count,
			video_count, published_at, uploads_playlist_id, status, monetizable,
			engagement_ratio, newest_video, oldest_video, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (channel_id) DO UPDATE SET
			title = EXCLUDED.title,
			thumbnail_url = EXCLUDED.thumbnail_url,
			subscriber_count = EXCLUDED.subscriber_count,
			view_count = EXCLUDED.view_count,
			video_count = EXCLUDED.video_count,
			published_at = EXCLUDED.published_at,
			uploads_playlist_id = EXCLUDED.uploads_playlist_id,
			status = EXCLUDED.status,
			monetizable = EXCLUDED.monetizable,
			engagement_ratio = EXCLUDED.engagement_ratio,
			newest_video = COALESCE(EXCLUDED.newest_video, channels.newest_video),
			oldest_video = COALESCE(EXCLUDED.oldest_video, channels.oldest_video),
			updated_at = EXCLUDED.updated_at`,
		ch.ChannelID, ch.Title, ch.ThumbnailURL, ch.SubscriberCount, ch.ViewCount,
		ch.VideoCount, ch.PublishedAt, ch.UploadsPlaylistID, ch.Status, ch.Monetizable,
		ch.EngagementRatio, newest, oldest, ch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetChannel(ctx context.Context, channelID string) (*models.ChannelStats, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT channel_id, title, thumbnail_url, subscriber_count, view_count, video_count,
			published_at, uploads_playlist_id, status, monetizable, engagement_ratio,
			newest_video, oldest_video, updated_at
		FROM channels WHERE channel_id = $1`, channelID)

	ch, err := scanChannel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

func (p *PostgresDB) ListChannels(ctx context.Context) ([]models.ChannelStats, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT channel_id, title, thumbnail_url, subscriber_count, view_count, video_count,
			published_at, uploads_playlist_id, status, monetizable, engagement_ratio,
			newest_video, oldest_video, updated_at
		FROM channels ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.ChannelStats
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func (p *PostgresDB) DeleteChannel(ctx context.Context, channelID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Movie persistence ---

func (p *PostgresDB) CreateMovie(ctx context.Context, m *models.Movie) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = models.MovieStatusPlanned
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO movies (id, title, status, channel_id, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Title, m.Status, m.ChannelID, m.Notes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

func (p *PostgresDB) GetMovie(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	var m models.Movie
	err := p.pool.QueryRow(ctx,
		`SELECT id, title, status, channel_id, notes, created_at, updated_at FROM movies WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.Status, &m.ChannelID, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &m, nil
}

func (p *PostgresDB) ListMovies(ctx context.Context) ([]models.Movie, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, status, channel_id, notes, created_at, updated_at FROM movies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Status, &m.ChannelID, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

func (p *PostgresDB) UpdateMovie(ctx context.Context, m *models.Movie) error {
	m.UpdatedAt = time.Now().UTC()
	tag, err := p.pool.Exec(ctx,
		`UPDATE movies SET title = $2, status = $3, notes = $4, updated_at = $5 WHERE id = $1`,
		m.ID, m.Title, m.Status, m.Notes, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresDB) DeleteMovie(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- helpers ---

func marshalVideo(v *models.VideoStat) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal video snapshot: %w", err)
	}
	return data, nil
}

func scanChannel(row pgx.Row) (*models.ChannelStats, error) {
	var ch models.ChannelStats
	var newest, oldest []byte
	err := row.Scan(&ch.ChannelID, &ch.Title, &ch.ThumbnailURL, &ch.SubscriberCount,
		&ch.ViewCount, &ch.VideoCount, &ch.PublishedAt, &ch.UploadsPlaylistID,
		&ch.Status, &ch.Monetizable, &ch.EngagementRatio, &newest, &oldest, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(newest) > 0 {
		var v models.VideoStat
		if err := json.Unmarshal(newest, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal newest video: %w", err)
		}
		ch.NewestVideo = &v
	}
	if len(oldest) > 0 {
		var v models.VideoStat
		if err := json.Unmarshal(oldest, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal oldest video: %w", err)
		}
		ch.OldestVideo = &v
	}
	return &ch, nil
}
