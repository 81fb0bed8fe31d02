package store

import (
	"context"
	"errors"
	"fmt"

	"verseatlas/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the Postgres connection pool. Schema management is out of
// scope; the tables in db/schema.sql are assumed to exist.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres using the given connection string.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// NextPoemForEnrichment returns one arbitrary poem that has an audio asset
// and no location links yet, skipping ids in exclude (records already
// attempted this run). Returns (nil, nil) when no eligible poem remains.
func (s *Store) NextPoemForEnrichment(ctx context.Context, exclude []string) (*core.Poem, error) {
	if exclude == nil {
		exclude = []string{}
	}
	query := `
		SELECT id, title, body
		FROM poems
		WHERE audio_url IS NOT NULL
		  AND id NOT IN (SELECT poem_id FROM poem_locations)
		  AND id <> ALL($1)
		LIMIT 1`

	var poem core.Poem
	err := s.pool.QueryRow(ctx, query, exclude).Scan(&poem.ID, &poem.Title, &poem.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next poem: %w", err)
	}
	return &poem, nil
}

// NextAuthorForEnrichment returns one arbitrary author with at least one
// audio-bearing poem and no location links yet, skipping ids in exclude.
// Returns (nil, nil) when no eligible author remains.
func (s *Store) NextAuthorForEnrichment(ctx context.Context, exclude []string) (*core.Author, error) {
	if exclude == nil {
		exclude = []string{}
	}
	query := `
		SELECT DISTINCT a.id, a.title, a.birth_year, a.death_year,
		                a.bio_foundation, a.bio_gale, a.bio_poetry, a.bio_pol
		FROM authors a
		JOIN poems p ON a.id = p.author_id
		WHERE p.audio_url IS NOT NULL
		  AND a.id NOT IN (SELECT author_id FROM author_locations)
		  AND a.id <> ALL($1)
		LIMIT 1`

	var author core.Author
	err := s.pool.QueryRow(ctx, query, exclude).Scan(
		&author.ID, &author.Title, &author.BirthYear, &author.DeathYear,
		&author.BioFoundation, &author.BioGale, &author.BioPoetry, &author.BioPol,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next author: %w", err)
	}
	return &author, nil
}

// JoinTable identifies the many-to-many edge between one record type and
// locations. The values are fixed at compile time, never user input.
type JoinTable struct {
	Table        string
	RecordColumn string
}

var (
	// PoemLocations links poems to locations.
	PoemLocations = JoinTable{Table: "poem_locations", RecordColumn: "poem_id"}
	// AuthorLocations links authors to locations.
	AuthorLocations = JoinTable{Table: "author_locations", RecordColumn: "author_id"}
)

// EnrichmentTx is one record's transactional view of the location tables,
// bound to a join table. All location rows and links created for a record
// commit atomically together.
type EnrichmentTx struct {
	tx   pgx.Tx
	join JoinTable
}

// BeginEnrichment opens a transaction for a single record's resolution and
// linking work.
func (s *Store) BeginEnrichment(ctx context.Context, join JoinTable) (*EnrichmentTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &EnrichmentTx{tx: tx, join: join}, nil
}

// LocationIDByDescription looks up a location by exact description text.
func (t *EnrichmentTx) LocationIDByDescription(ctx context.Context, description string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`SELECT id FROM locations WHERE location_description = $1`,
		description,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up location %q: %w", description, err)
	}
	return id, true, nil
}

// InsertLocation creates a location row for description, with a PostGIS
// geography point when one was geocoded and a null geometry otherwise.
// Insert-or-ignore keyed on the unique description: if a concurrent writer
// created the row between lookup and insert, the RETURNING clause yields no
// row and the id is re-read by description instead. The unique constraint is
// the sole correctness mechanism; there is no lock and no retry loop.
func (t *EnrichmentTx) InsertLocation(ctx context.Context, description string, point *core.Point) (int64, error) {
	var (
		id  int64
		err error
	)
	if point != nil {
		err = t.tx.QueryRow(ctx, `
			INSERT INTO locations (location_description, geom)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
			ON CONFLICT (location_description) DO NOTHING
			RETURNING id`,
			description, point.Lng, point.Lat,
		).Scan(&id)
	} else {
		err = t.tx.QueryRow(ctx, `
			INSERT INTO locations (location_description)
			VALUES ($1)
			ON CONFLICT (location_description) DO NOTHING
			RETURNING id`,
			description,
		).Scan(&id)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent insert won; the row exists now.
		err = t.tx.QueryRow(ctx,
			`SELECT id FROM locations WHERE location_description = $1`,
			description,
		).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert location %q: %w", description, err)
	}
	return id, nil
}

// LinkLocation creates the (record, location) edge. Duplicate attempts are
// silent no-ops.
func (t *EnrichmentTx) LinkLocation(ctx context.Context, recordID string, locationID int64) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, location_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		t.join.Table, t.join.RecordColumn,
	)
	if _, err := t.tx.Exec(ctx, query, recordID, locationID); err != nil {
		return fmt.Errorf("failed to link %s %s to location %d: %w", t.join.RecordColumn, recordID, locationID, err)
	}
	return nil
}

// Commit commits the record's transaction.
func (t *EnrichmentTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback aborts the record's transaction. Safe to call after Commit.
func (t *EnrichmentTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// ImportPoems inserts a batch of poems in one transaction, ignoring ids that
// already exist.
func (s *Store) ImportPoems(ctx context.Context, poems []core.Poem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, poem := range poems {
		_, err := tx.Exec(ctx, `
			INSERT INTO poems (id, title, url, body, author_id, audio_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			poem.ID, poem.Title, poem.URL, poem.Body, poem.AuthorID, poem.AudioURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert poem %s: %w", poem.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// ImportAuthors inserts a batch of authors in one transaction, ignoring ids
// that already exist.
func (s *Store) ImportAuthors(ctx context.Context, authors []core.Author) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, author := range authors {
		_, err := tx.Exec(ctx, `
			INSERT INTO authors (id, title, url, birth_year, death_year,
			                     bio_foundation, bio_gale, bio_poetry, bio_pol)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			author.ID, author.Title, author.URL, author.BirthYear, author.DeathYear,
			author.BioFoundation, author.BioGale, author.BioPoetry, author.BioPol,
		)
		if err != nil {
			return fmt.Errorf("failed to insert author %s: %w", author.ID, err)
		}
	}
	return tx.Commit(ctx)
}
