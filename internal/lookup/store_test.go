// internal/lookup/store_test.go
//
// Unit-tests for Store using sqlmock.
//
// Run: go test ./internal/lookup -v

package lookup

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T, driver string) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, driver), DefaultPrefix), mock
}

func TestStore_CourseByID(t *testing.T) {
	s, mock := newMockStore(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM   mdl_course`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shortname"}).AddRow(42, "cs101"))

	got, err := s.CourseByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("CourseByID error: %v", err)
	}
	if got.ID != 42 || got.ShortName != "cs101" {
		t.Fatalf("unexpected result: %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestStore_NotFound(t *testing.T) {
	s, mock := newMockStore(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM   mdl_local_customcleanurl`)).
		WithArgs("/missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "custom_url", "default_url"}))

	_, err := s.MappingByCustomURL(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_UserByUsernameLowercases(t *testing.T) {
	s, mock := newMockStore(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  LOWER(username) = ?`)).
		WithArgs("janedoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(7, "janedoe"))

	got, err := s.UserByUsername(context.Background(), "JaneDoe")
	if err != nil {
		t.Fatalf("UserByUsername error: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("id = %d, want 7", got.ID)
	}
}

func TestStore_UserLookupsSkipDeleted(t *testing.T) {
	s, mock := newMockStore(t, "mysql")
	empty := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"id", "username"}) }

	mock.ExpectQuery(regexp.QuoteMeta("WHERE  id = ?\n          AND  deleted = 0")).
		WithArgs(int64(9)).
		WillReturnRows(empty())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE  LOWER(username) = ?\n          AND  deleted = 0")).
		WithArgs("gone").
		WillReturnRows(empty())

	if _, err := s.UserByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UserByID err = %v, want ErrNotFound", err)
	}
	if _, err := s.UserByUsername(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UserByUsername err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestStore_PostgresRebind(t *testing.T) {
	s, mock := newMockStore(t, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE  id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Science"))

	got, err := s.CategoryByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("CategoryByID error: %v", err)
	}
	if got.Name != "Science" {
		t.Fatalf("name = %q, want Science", got.Name)
	}
}

func TestStore_DriverErrorWrapped(t *testing.T) {
	s, mock := newMockStore(t, "mysql")
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM   mdl_user`)).
		WithArgs(int64(7)).
		WillReturnError(boom)

	_, err := s.UserByID(context.Background(), 7)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("driver error must not read as not-found")
	}
}
