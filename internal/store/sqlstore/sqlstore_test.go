// internal/store/sqlstore/sqlstore_test.go
//
// Unit-tests for the sqlx-backed store using sqlmock.
//
// Run: go test ./internal/store/sqlstore -v

package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/nutshell/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "mysql"), "Article", "articles", ""), mock
}

// columns builds typed mock rows; "id" is BIGINT, everything else VARCHAR.
func columns(names ...string) *sqlmock.Rows {
	defs := make([]*sqlmock.Column, len(names))
	for i, n := range names {
		if n == "id" {
			defs[i] = sqlmock.NewColumn(n).OfType("BIGINT", int64(0))
		} else {
			defs[i] = sqlmock.NewColumn(n).OfType("VARCHAR", "")
		}
	}
	return sqlmock.NewRowsWithColumnDefinition(defs...)
}

func TestAll(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).
		WillReturnRows(columns("id", "title").
			AddRow([]byte("1"), []byte("first")).
			AddRow(int64(2), "second"))

	recs, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if got := recs[0].Attributes(); got["id"] != int64(1) || got["title"] != "first" {
		t.Fatalf("first record = %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestFind_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(9)).
		WillReturnRows(columns("id", "title"))

	_, err := s.Find(context.Background(), 9)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFind_QueryError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).WillReturnError(boom)

	_, err := s.Find(context.Background(), 1)
	if !errors.Is(err, boom) || errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestInsert_SortedColumnsAndLastID(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `articles` (`body`, `tags`, `title`) VALUES (?, ?, ?)")).
		WithArgs("b", "x,y", "t").
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec := s.New()
	s.Fill(rec, map[string]any{"title": "t", "body": "b", "tags": []string{"x", "y"}})
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if got := rec.Attributes()["id"]; got != int64(7) {
		t.Fatalf("id = %#v, want 7", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestInsert_EmptyRecord(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `articles` () VALUES ()")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Save(context.Background(), s.New()); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdate_DirtyColumnsOnly(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(3)).
		WillReturnRows(columns("id", "title", "body").
			AddRow(int64(3), "old", "keep"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `articles` SET `title` = ? WHERE `id` = ?")).
		WithArgs("new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	rec, err := s.Find(ctx, 3)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	s.Fill(rec, map[string]any{"title": "new"})
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if got := rec.Attributes(); got["body"] != "keep" || got["title"] != "new" {
		t.Fatalf("attributes = %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdate_IDInFieldsDoesNotRetarget(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).
		WillReturnRows(columns("id").AddRow(int64(3)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `articles` SET `id` = ? WHERE `id` = ?")).
		WithArgs(int64(99), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	rec, err := s.Find(ctx, 3)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	s.Fill(rec, map[string]any{"id": int64(99)})
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).
		WillReturnRows(columns("id").AddRow(int64(4)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `articles` WHERE `id` = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `articles` WHERE `id` = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	rec, err := s.Find(ctx, 4)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if err := s.Delete(ctx, rec); err != nil {
		t.Fatalf("first Delete error: %v", err)
	}
	if err := s.Delete(ctx, rec); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestQuote(t *testing.T) {
	if got := quote("we`ird"); got != "`we``ird`" {
		t.Fatalf("quote = %s", got)
	}
	if got := placeholders(3); got != "?, ?, ?" {
		t.Fatalf("placeholders = %q", got)
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		raw, typ string
		want     any
	}{
		{"12", "BIGINT", int64(12)},
		{"1.5", "DECIMAL", 1.5},
		{"abc", "VARCHAR", "abc"},
		{"x", "INT", "x"},
	}
	for _, c := range cases {
		if got := decode([]byte(c.raw), c.typ); got != c.want {
			t.Errorf("decode(%q, %s) = %#v, want %#v", c.raw, c.typ, got, c.want)
		}
	}
}

func TestSQLValue_JSON(t *testing.T) {
	got := sqlValue(map[string]any{"k": "v"})
	if got != `{"k":"v"}` {
		t.Fatalf("sqlValue = %#v", got)
	}
}

func TestUpdate_RowGone(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).
		WillReturnRows(columns("id", "title").AddRow(int64(5), "old"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `articles` SET `title` = ? WHERE `id` = ?")).
		WithArgs("new", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `articles` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ctx := context.Background()
	rec, err := s.Find(ctx, 5)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	s.Fill(rec, map[string]any{"title": "new"})
	if err := s.Save(ctx, rec); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Save = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdate_UnchangedRowIsNotMissing(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `articles`")).
		WillReturnRows(columns("id", "title").AddRow(int64(5), "same"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `articles` SET `title` = ? WHERE `id` = ?")).
		WithArgs("same", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM `articles` WHERE `id` = ? LIMIT 1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))

	ctx := context.Background()
	rec, err := s.Find(ctx, 5)
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	s.Fill(rec, map[string]any{"title": "same"})
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestInsert_JSONNumberBindsExactly(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `articles` (`n`) VALUES (?)")).
		WithArgs("9007199254740993").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := s.New()
	s.Fill(rec, map[string]any{"n": json.Number("9007199254740993")})
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
