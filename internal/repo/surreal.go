package repo

import (
	"context"
	"fmt"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/pkordes/tripsync/internal/domain"
)

// surrealRecord is the stored shape of a document: the record id lives in
// the SurrealDB table, the document itself under doc.
type surrealRecord[T any] struct {
	ID        *models.RecordID `json:"id,omitempty"`
	Doc       T                `json:"doc"`
	CreatedAt any              `json:"created_at,omitempty"`
}

// SurrealGateway stores each collection in its own SurrealDB table.
type SurrealGateway[T any] struct {
	db  *surrealdb.DB
	col Collection[T]
}

// NewSurrealDB connects, signs in when credentials are given and selects the
// namespace and database.
func NewSurrealDB(ctx context.Context, url, namespace, database, user, pass string) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if user != "" {
		if _, err := db.SignIn(ctx, map[string]any{"user": user, "pass": pass}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("sign in surrealdb: %w", err)
		}
	}
	if err := db.Use(ctx, namespace, database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("use %s/%s: %w", namespace, database, err)
	}
	return db, nil
}

// NewSurrealGateway constructs a gateway for col on an open connection.
func NewSurrealGateway[T any](db *surrealdb.DB, col Collection[T]) *SurrealGateway[T] {
	return &SurrealGateway[T]{db: db, col: col}
}

func (g *SurrealGateway[T]) op(method string) string {
	return "repo.SurrealGateway[" + g.col.Name + "]." + method
}

// NewID returns a time-ordered UUID generated by the server.
func (g *SurrealGateway[T]) NewID(ctx context.Context) (string, error) {
	id, err := querySurreal[string](ctx, g.db, `RETURN <string> rand::uuid::v7();`, nil)
	if err != nil {
		return "", wrapErr(g.op("NewID"), err)
	}
	return id, nil
}

func (g *SurrealGateway[T]) Init(ctx context.Context) error {
	_, err := querySurreal[[]surrealRecord[T]](ctx, g.db,
		`SELECT * FROM type::table($tb) LIMIT 1;`,
		map[string]any{"tb": g.col.Name})
	if err != nil {
		return wrapErr(g.op("Init"), err)
	}
	return nil
}

func (g *SurrealGateway[T]) GetAll(ctx context.Context, owner string) ([]T, error) {
	q := `SELECT * FROM type::table($tb)`
	vars := map[string]any{"tb": g.col.Name}

	// OwnerField comes from the collection definition, never from input.
	if owner != "" && g.col.OwnerField != "" {
		if g.col.OwnerIsList {
			q += fmt.Sprintf(` WHERE $owner IN doc.%s`, g.col.OwnerField)
		} else {
			q += fmt.Sprintf(` WHERE doc.%s = $owner`, g.col.OwnerField)
		}
		vars["owner"] = owner
	}
	q += ` ORDER BY created_at, id;`

	recs, err := querySurreal[[]surrealRecord[T]](ctx, g.db, q, vars)
	if err != nil {
		return nil, wrapErr(g.op("GetAll"), err)
	}
	return unwrapRecords(recs), nil
}

func (g *SurrealGateway[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	recs, err := querySurreal[[]surrealRecord[T]](ctx, g.db,
		`SELECT * FROM type::thing($tb, $id);`,
		map[string]any{"tb": g.col.Name, "id": id})
	if err != nil {
		return zero, wrapErr(g.op("Get"), err)
	}
	if len(recs) == 0 {
		return zero, wrapErr(g.op("Get"), domain.ErrNotFound)
	}
	return recs[0].Doc, nil
}

// Create writes the whole document. An existing record keeps its creation time.
func (g *SurrealGateway[T]) Create(ctx context.Context, doc T) error {
	id := g.col.ID(doc)
	if id == "" {
		return wrapErr(g.op("Create"), fmt.Errorf("%w: document has no id", domain.ErrValidation))
	}
	_, err := querySurreal[[]surrealRecord[T]](ctx, g.db,
		`UPSERT type::thing($tb, $id) SET doc = $doc, created_at = created_at ?? time::now();`,
		map[string]any{"tb": g.col.Name, "id": id, "doc": doc})
	if err != nil {
		return wrapErr(g.op("Create"), err)
	}
	return nil
}

func (g *SurrealGateway[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if err := validatePatch(id, patch); err != nil {
		return wrapErr(g.op("Update"), err)
	}

	// UPDATE on a single record id creates nothing; only the WHERE guard
	// stops it from touching a record that was never written.
	recs, err := querySurreal[[]surrealRecord[T]](ctx, g.db,
		`UPDATE type::thing($tb, $id) MERGE { doc: $patch } WHERE doc != NONE RETURN AFTER;`,
		map[string]any{"tb": g.col.Name, "id": id, "patch": patch})
	if err != nil {
		return wrapErr(g.op("Update"), err)
	}
	if len(recs) == 0 {
		return wrapErr(g.op("Update"), domain.ErrNotFound)
	}
	return nil
}

func (g *SurrealGateway[T]) Delete(ctx context.Context, id string) error {
	recs, err := querySurreal[[]surrealRecord[T]](ctx, g.db,
		`DELETE type::thing($tb, $id) RETURN BEFORE;`,
		map[string]any{"tb": g.col.Name, "id": id})
	if err != nil {
		return wrapErr(g.op("Delete"), err)
	}
	if len(recs) == 0 {
		return wrapErr(g.op("Delete"), domain.ErrNotFound)
	}
	return nil
}

func (g *SurrealGateway[T]) Search(ctx context.Context, query string) ([]T, error) {
	if g.col.SearchField == "" {
		return nil, wrapErr(g.op("Search"), fmt.Errorf("%w: collection is not searchable", domain.ErrValidation))
	}

	q := fmt.Sprintf(`SELECT * FROM type::table($tb)
		WHERE string::contains(string::lowercase(doc.%[1]s ?? ''), string::lowercase($q))
		ORDER BY doc.%[1]s, id;`, g.col.SearchField)

	recs, err := querySurreal[[]surrealRecord[T]](ctx, g.db, q, map[string]any{"tb": g.col.Name, "q": query})
	if err != nil {
		return nil, wrapErr(g.op("Search"), err)
	}
	return unwrapRecords(recs), nil
}

// querySurreal runs a single-statement query and returns its result.
// A statement that did not finish with status OK is an error.
func querySurreal[R any](ctx context.Context, db *surrealdb.DB, q string, vars map[string]any) (R, error) {
	var zero R
	if vars == nil {
		vars = map[string]any{}
	}
	res, err := surrealdb.Query[R](ctx, db, q, vars)
	if err != nil {
		return zero, err
	}
	if res == nil || len(*res) == 0 {
		return zero, fmt.Errorf("query returned no statements")
	}
	stmt := (*res)[0]
	if stmt.Status != "OK" {
		return zero, fmt.Errorf("statement status %s", stmt.Status)
	}
	return stmt.Result, nil
}

func unwrapRecords[T any](recs []surrealRecord[T]) []T {
	docs := make([]T, 0, len(recs))
	for _, r := range recs {
		docs = append(docs, r.Doc)
	}
	return docs
}
