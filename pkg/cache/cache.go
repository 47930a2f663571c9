package cache

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"deal-scout/pkg/models"

	_ "modernc.org/sqlite"
)

// Cache keeps normalized search pages in sqlite. Entries older than ttl are
// treated as misses and overwritten on the next fetch.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS searches (
			marketplace TEXT NOT NULL,
			query TEXT NOT NULL,
			result_limit INTEGER NOT NULL,
			data TEXT NOT NULL,
			fetched_at DATETIME NOT NULL,
			PRIMARY KEY (marketplace, query, result_limit)
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func key(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *Cache) Get(marketplace, query string, limit int) (*models.CachedPage, bool) {
	var data string
	var fetchedAt time.Time

	err := c.db.QueryRow(
		`SELECT data, fetched_at FROM searches WHERE marketplace = ? AND query = ? AND result_limit = ?`,
		marketplace, key(query), limit,
	).Scan(&data, &fetchedAt)

	if err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Str("query", query).Msg("Cache: lookup failed")
		}
		return nil, false
	}

	if c.now().Sub(fetchedAt) > c.ttl {
		return nil, false
	}

	var page models.CachedPage
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Cache: failed to unmarshal page")
		return nil, false
	}

	return &page, true
}

func (c *Cache) Set(marketplace, query string, limit int, page *models.CachedPage) {
	data, err := json.Marshal(page)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Cache: failed to marshal page")
		return
	}

	_, err = c.db.Exec(
		`INSERT INTO searches (marketplace, query, result_limit, data, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(marketplace, query, result_limit)
		 DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at`,
		marketplace, key(query), limit, string(data), page.FetchedAt,
	)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Cache: failed to store page")
	}
}

func (c *Cache) Close() error {
	return c.db.Close()
}
