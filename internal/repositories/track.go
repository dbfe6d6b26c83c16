package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// TrackRepository caches the liked-songs library in SQLite. Each fetch
// replaces the whole snapshot; position preserves library order so an
// offline replay produces the same session ordering as a live fetch.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// ReplaceAll swaps the cached snapshot for the given tracks in one
// transaction, stamping every row with the same fetch time.
func (r *TrackRepository) ReplaceAll(tracks []models.Track) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracks`); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (id, position, name, artist, album, popularity, duration_ms, release_date, explicit, cover_url, preview_url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC()

	for position, track := range tracks {
		var popularity any
		if track.Popularity != nil {
			popularity = *track.Popularity
		}

		_, err := stmt.Exec(
			track.ID,
			position,
			track.Name,
			track.Artist,
			track.Album,
			popularity,
			track.DurationMS,
			track.ReleaseDate,
			track.Explicit,
			track.CoverURL,
			track.PreviewURL,
			fetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// ListByPosition returns the cached snapshot in fetch order.
func (r *TrackRepository) ListByPosition() ([]models.Track, error) {
	query := `
		SELECT id, name, artist, album, popularity, duration_ms, release_date, explicit, cover_url, preview_url
		FROM tracks
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		var popularity sql.NullInt64

		err := rows.Scan(
			&track.ID,
			&track.Name,
			&track.Artist,
			&track.Album,
			&popularity,
			&track.DurationMS,
			&track.ReleaseDate,
			&track.Explicit,
			&track.CoverURL,
			&track.PreviewURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}

		if popularity.Valid {
			value := int(popularity.Int64)
			track.Popularity = &value
		}

		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// Count reports the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// FetchedAt returns when the snapshot was taken, or the zero time for an
// empty cache.
func (r *TrackRepository) FetchedAt() (time.Time, error) {
	var fetchedAt time.Time
	err := r.db.QueryRow(`SELECT fetched_at FROM tracks ORDER BY position LIMIT 1`).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query fetch time: %w", err)
	}

	return fetchedAt, nil
}

// Clear drops the cached snapshot.
func (r *TrackRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM tracks`); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return nil
}
