package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tripsync/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresGateway stores every collection in the single `documents` table:
// one row per document, the document itself in a JSONB body.
type PostgresGateway[T any] struct {
	db  db
	col Collection[T]
}

// NewPostgresGateway constructs a gateway for col backed by the provided db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPostgresGateway[T any](db db, col Collection[T]) *PostgresGateway[T] {
	return &PostgresGateway[T]{db: db, col: col}
}

func (g *PostgresGateway[T]) op(method string) string {
	return "repo.PostgresGateway[" + g.col.Name + "]." + method
}

// NewID returns a server-generated UUID.
func (g *PostgresGateway[T]) NewID(ctx context.Context) (string, error) {
	var id string
	if err := g.db.QueryRow(ctx, `SELECT gen_random_uuid()::text`).Scan(&id); err != nil {
		return "", wrapErr(g.op("NewID"), err)
	}
	return id, nil
}

// Init reads at most one row of the collection.
func (g *PostgresGateway[T]) Init(ctx context.Context) error {
	const q = `SELECT EXISTS (SELECT 1 FROM documents WHERE collection = @collection)`

	var exists bool
	if err := g.db.QueryRow(ctx, q, pgx.NamedArgs{"collection": g.col.Name}).Scan(&exists); err != nil {
		return wrapErr(g.op("Init"), err)
	}
	return nil
}

// GetAll returns the collection ordered by creation time.
func (g *PostgresGateway[T]) GetAll(ctx context.Context, owner string) ([]T, error) {
	q := `SELECT body FROM documents WHERE collection = @collection`
	args := pgx.NamedArgs{"collection": g.col.Name}

	if owner != "" && g.col.OwnerField != "" {
		if g.col.OwnerIsList {
			q += ` AND body -> @owner_field::text ? @owner::text`
		} else {
			q += ` AND body ->> @owner_field::text = @owner::text`
		}
		args["owner_field"] = g.col.OwnerField
		args["owner"] = owner
	}
	q += ` ORDER BY created_at, id`

	docs, err := g.queryDocs(ctx, q, args)
	if err != nil {
		return nil, wrapErr(g.op("GetAll"), err)
	}
	return docs, nil
}

// Get retrieves a document by id.
func (g *PostgresGateway[T]) Get(ctx context.Context, id string) (T, error) {
	const q = `SELECT body FROM documents WHERE collection = @collection AND id = @id`

	var doc T
	err := g.db.QueryRow(ctx, q, pgx.NamedArgs{"collection": g.col.Name, "id": id}).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrNotFound
		}
		return doc, wrapErr(g.op("Get"), err)
	}
	return doc, nil
}

// Create writes the full document, replacing any previous body under the same id.
func (g *PostgresGateway[T]) Create(ctx context.Context, doc T) error {
	const q = `
		INSERT INTO documents (collection, id, body)
		VALUES (@collection, @id, @body)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

	id := g.col.ID(doc)
	if id == "" {
		return wrapErr(g.op("Create"), fmt.Errorf("%w: document has no id", domain.ErrValidation))
	}

	args := pgx.NamedArgs{
		"collection": g.col.Name,
		"id":         id,
		"body":       doc, // encoded to JSONB by pgx
	}
	if _, err := g.db.Exec(ctx, q, args); err != nil {
		return wrapErr(g.op("Create"), err)
	}
	return nil
}

// Update merges patch into the top level of the stored body.
func (g *PostgresGateway[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	const q = `
		UPDATE documents
		SET body       = body || @patch::jsonb,
		    updated_at = now()
		WHERE collection = @collection AND id = @id`

	if err := validatePatch(id, patch); err != nil {
		return wrapErr(g.op("Update"), err)
	}

	tag, err := g.db.Exec(ctx, q, pgx.NamedArgs{"collection": g.col.Name, "id": id, "patch": patch})
	if err != nil {
		return wrapErr(g.op("Update"), err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr(g.op("Update"), domain.ErrNotFound)
	}
	return nil
}

// Delete removes a document by id.
func (g *PostgresGateway[T]) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE collection = @collection AND id = @id`

	tag, err := g.db.Exec(ctx, q, pgx.NamedArgs{"collection": g.col.Name, "id": id})
	if err != nil {
		return wrapErr(g.op("Delete"), err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr(g.op("Delete"), domain.ErrNotFound)
	}
	return nil
}

// Search matches query as a substring of the collection's search field.
func (g *PostgresGateway[T]) Search(ctx context.Context, query string) ([]T, error) {
	const q = `
		SELECT body FROM documents
		WHERE collection = @collection
		  AND body ->> @field::text ILIKE '%' || @query::text || '%' ESCAPE '\'
		ORDER BY body ->> @field::text, id`

	if g.col.SearchField == "" {
		return nil, wrapErr(g.op("Search"), fmt.Errorf("%w: collection is not searchable", domain.ErrValidation))
	}

	args := pgx.NamedArgs{
		"collection": g.col.Name,
		"field":      g.col.SearchField,
		"query":      escapeLike(query),
	}
	docs, err := g.queryDocs(ctx, q, args)
	if err != nil {
		return nil, wrapErr(g.op("Search"), err)
	}
	return docs, nil
}

// queryDocs scans every row's body. Any scan failure discards the rows read so far.
func (g *PostgresGateway[T]) queryDocs(ctx context.Context, q string, args pgx.NamedArgs) ([]T, error) {
	rows, err := g.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var doc T
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return docs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
