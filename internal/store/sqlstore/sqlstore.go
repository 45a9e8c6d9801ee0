// internal/store/sqlstore/sqlstore.go
//
// Table-backed model.Model on top of sqlx.
//
// Context
// -------
// One Store maps one model name to one table with an integer primary key
// column (`id` by default).  Rows are read with `SELECT *` and MapScan, so
// the store needs no struct per model; a record is simply the column map.
//
// Writes are built from the record’s dirty fields only:
//
//	INSERT INTO `articles` (`body`, `title`) VALUES (?, ?)
//	UPDATE `articles` SET `title` = ? WHERE `id` = ?
//
// Columns are emitted in sorted order so statements are deterministic.
//
// Notes
// -----
// • Every identifier is backtick-quoted with embedded backticks doubled.
//   Field names come straight from request input, so this is the only
//   thing standing between a client and the SQL text.  Unknown columns
//   fail at the database and surface as 500s.
// • []byte column values (MySQL text protocol) are decoded by column type:
//   integer and numeric columns become numbers, everything else a string.
// • UPDATE and DELETE match on the key the row was loaded with, so an `id`
//   in submitted fields changes the column but never retargets the write.
// • A write that finds its row gone returns model.ErrNotFound.  For UPDATE
//   zero affected rows is confirmed with a key lookup first, because MySQL
//   reports 0 for an update that matched but changed nothing.
// • Both MySQL and SQLite accept the backtick quoting used here.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/nutshell/internal/model"
)

// DefaultKey is the primary-key column used when none is configured.
const DefaultKey = "id"

// Compile-time assertion.
var _ model.Model = (*Store)(nil)

// Store is safe for concurrent use; it holds no state besides the pool.
type Store struct {
	db    *sqlx.DB
	name  string
	table string
	key   string
}

// row is the model.Record produced by Store.
type row struct {
	attrs     map[string]any
	dirty     map[string]struct{}
	persisted bool
	pk        any // primary key as loaded or inserted
}

func (r *row) Attributes() map[string]any { return maps.Clone(r.attrs) }

// New returns a Store for model name backed by table.  An empty key means
// DefaultKey.
func New(db *sqlx.DB, name, table, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{db: db, name: name, table: table, key: key}
}

func (s *Store) Name() string { return s.name }

/*──────────────────────────── reads ───────────────────────────────────────*/

func (s *Store) All(ctx context.Context) ([]model.Record, error) {
	q := "SELECT * FROM " + quote(s.table)
	rows, err := s.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", s.table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", s.table, err)
	}

	var out []model.Record
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, fmt.Errorf("sqlstore: scan %s: %w", s.table, err)
		}
		out = append(out, s.loaded(m, types))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", s.table, err)
	}
	return out, nil
}

func (s *Store) Find(ctx context.Context, id int64) (model.Record, error) {
	q := s.db.Rebind("SELECT * FROM " + quote(s.table) +
		" WHERE " + quote(s.key) + " = ? LIMIT 1")

	rx := s.db.QueryRowxContext(ctx, q, id)
	types, _ := rx.ColumnTypes()

	m := map[string]any{}
	err := rx.MapScan(m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find %s %d: %w", s.table, id, err)
	}
	return s.loaded(m, types), nil
}

/*──────────────────────────── writes ──────────────────────────────────────*/

func (s *Store) New() model.Record {
	return &row{attrs: map[string]any{}, dirty: map[string]struct{}{}}
}

func (s *Store) Fill(rec model.Record, fields map[string]any) {
	r := rec.(*row)
	for k, v := range fields {
		r.attrs[k] = v
		r.dirty[k] = struct{}{}
	}
}

// Save inserts a fresh record or updates the dirty columns of a loaded one.
func (s *Store) Save(ctx context.Context, rec model.Record) error {
	r := rec.(*row)
	if r.persisted {
		return s.update(ctx, r)
	}
	return s.insert(ctx, r)
}

func (s *Store) insert(ctx context.Context, r *row) error {
	cols := r.dirtyColumns()

	var q string
	switch {
	case len(cols) > 0:
		q = "INSERT INTO " + quote(s.table) + " (" + quoteAll(cols) + ") VALUES (" +
			placeholders(len(cols)) + ")"
	case s.db.DriverName() == "sqlite3":
		q = "INSERT INTO " + quote(s.table) + " DEFAULT VALUES"
	default:
		q = "INSERT INTO " + quote(s.table) + " () VALUES ()"
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), r.values(cols)...)
	if err != nil {
		return fmt.Errorf("sqlstore: insert %s: %w", s.table, err)
	}
	if _, ok := r.attrs[s.key]; !ok {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlstore: insert %s: last id: %w", s.table, err)
		}
		r.attrs[s.key] = id
	}
	r.pk = r.attrs[s.key]
	r.persisted = true
	clear(r.dirty)
	return nil
}

func (s *Store) update(ctx context.Context, r *row) error {
	cols := r.dirtyColumns()
	if len(cols) == 0 {
		return nil
	}
	if r.pk == nil {
		return fmt.Errorf("sqlstore: update %s: record has no %q", s.table, s.key)
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quote(c) + " = ?"
	}
	q := "UPDATE " + quote(s.table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + quote(s.key) + " = ?"

	args := append(r.values(cols), r.pk)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("sqlstore: update %s: %w", s.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL counts changed rows, not matched ones.
		if err := s.exists(ctx, r.pk); err != nil {
			return err
		}
	}
	clear(r.dirty)
	return nil
}

// exists returns model.ErrNotFound when no row carries pk.
func (s *Store) exists(ctx context.Context, pk any) error {
	q := s.db.Rebind("SELECT 1 FROM " + quote(s.table) + " WHERE " + quote(s.key) + " = ? LIMIT 1")

	var one int
	err := s.db.QueryRowxContext(ctx, q, pk).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlstore: update %s: %w", s.table, err)
	}
	return nil
}

// Delete removes rec by primary key.  Zero affected rows means another
// request got there first and yields model.ErrNotFound.
func (s *Store) Delete(ctx context.Context, rec model.Record) error {
	r := rec.(*row)
	q := s.db.Rebind("DELETE FROM " + quote(s.table) + " WHERE " + quote(s.key) + " = ?")

	res, err := s.db.ExecContext(ctx, q, r.pk)
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", s.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// loaded wraps a scanned column map as a persisted row.
func (s *Store) loaded(m map[string]any, types []*sql.ColumnType) *row {
	dbType := make(map[string]string, len(types))
	for _, t := range types {
		dbType[t.Name()] = strings.ToUpper(t.DatabaseTypeName())
	}
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = decode(b, dbType[k])
		}
	}
	return &row{attrs: m, dirty: map[string]struct{}{}, persisted: true, pk: m[s.key]}
}

// decode turns a raw text-protocol value into a number when the column type
// says it is one.  Anything else, or anything unparsable, stays a string.
func decode(b []byte, dbType string) any {
	str := string(b)
	switch {
	case strings.Contains(dbType, "INT"):
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			return n
		}
	case strings.Contains(dbType, "DECIMAL"), strings.Contains(dbType, "NUMERIC"),
		strings.Contains(dbType, "FLOAT"), strings.Contains(dbType, "DOUBLE"),
		strings.Contains(dbType, "REAL"):
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return f
		}
	}
	return str
}

func (r *row) dirtyColumns() []string {
	cols := make([]string, 0, len(r.dirty))
	for c := range r.dirty {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (r *row) values(cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = sqlValue(r.attrs[c])
	}
	return out
}

// sqlValue flattens values database/sql cannot bind.  Repeated form keys
// arrive as []string and are stored comma-joined; JSON objects and arrays
// are stored as their JSON text.
func sqlValue(v any) any {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return t
	}
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func quoteAll(idents []string) string {
	q := make([]string, len(idents))
	for i, id := range idents {
		q[i] = quote(id)
	}
	return strings.Join(q, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
