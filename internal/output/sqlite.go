package output

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmylchreest/countryleaders/internal/model"
)

//go:embed schema.sql
var schema string

// SQLiteSink upserts leaders into a SQLite database, keyed by (country, id).
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

const upsertLeader = `
INSERT INTO leaders (country, id, first_name, last_name, birth_date, death_date, place_of_birth,
                     wikipedia_url, start_mandate, end_mandate, first_paragraph, extra, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (country, id) DO UPDATE SET
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    birth_date = excluded.birth_date,
    death_date = excluded.death_date,
    place_of_birth = excluded.place_of_birth,
    wikipedia_url = excluded.wikipedia_url,
    start_mandate = excluded.start_mandate,
    end_mandate = excluded.end_mandate,
    first_paragraph = excluded.first_paragraph,
    extra = excluded.extra,
    scraped_at = excluded.scraped_at`

// Save upserts every leader of result in a single transaction.
func (s *SQLiteSink) Save(ctx context.Context, result *model.ScrapeResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertLeader)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, country := range result.Countries() {
		leaders, _ := result.Leaders(country)
		for _, l := range leaders {
			extra, err := extraJSON(l)
			if err != nil {
				return fmt.Errorf("encode extra %s/%s: %w", country, l.ID, err)
			}
			if _, err := stmt.ExecContext(ctx,
				string(country), l.ID, l.FirstName, l.LastName,
				nullable(l.BirthDate), nullable(l.DeathDate), nullable(l.PlaceOfBirth),
				nullable(l.WikipediaURL), nullable(l.StartMandate), nullable(l.EndMandate),
				l.FirstParagraph, extra, now,
			); err != nil {
				return fmt.Errorf("upsert %s/%s: %w", country, l.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads stored leaders back into a result, countries in name order.
func (s *SQLiteSink) Load(ctx context.Context) (*model.ScrapeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT country, id, first_name, last_name, birth_date, death_date, place_of_birth,
       wikipedia_url, start_mandate, end_mandate, first_paragraph, extra
FROM leaders ORDER BY country, id`)
	if err != nil {
		return nil, fmt.Errorf("query leaders: %w", err)
	}
	defer rows.Close()

	grouped := make(map[model.Country][]model.Leader)
	var order []model.Country
	for rows.Next() {
		var country string
		var l model.Leader
		var birth, death, place, wiki, start, end, paragraph, extra sql.NullString
		if err := rows.Scan(&country, &l.ID, &l.FirstName, &l.LastName,
			&birth, &death, &place, &wiki, &start, &end, &paragraph, &extra); err != nil {
			return nil, fmt.Errorf("scan leader: %w", err)
		}
		if extra.Valid {
			if err := json.Unmarshal([]byte(extra.String), &l.Extra); err != nil {
				return nil, fmt.Errorf("decode extra %s/%s: %w", country, l.ID, err)
			}
		}
		l.BirthDate, l.DeathDate, l.PlaceOfBirth = birth.String, death.String, place.String
		l.WikipediaURL, l.StartMandate, l.EndMandate = wiki.String, start.String, end.String
		if paragraph.Valid {
			p := paragraph.String
			l.FirstParagraph = &p
		}

		c := model.Country(country)
		if _, seen := grouped[c]; !seen {
			order = append(order, c)
		}
		grouped[c] = append(grouped[c], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaders: %w", err)
	}

	result := model.NewScrapeResult()
	for _, c := range order {
		result.Commit(c, grouped[c])
	}
	return result, nil
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// extraJSON encodes a leader's extra API fields as one JSON object, or NULL.
func extraJSON(l model.Leader) (sql.NullString, error) {
	if len(l.Extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(l.Extra)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
