package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

func idRow(id int64) *mockRow {
	return &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int64)) = id
		return nil
	}}
}

func errRow(err error) *mockRow {
	return &mockRow{scanFunc: func(...any) error { return err }}
}

func TestCreateUser_AssignsReturnedID(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(idRow(42))

	u := &model.User{Username: "alice", Email: "alice@example.com", Role: model.RoleUser}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.Equal(t, int64(42), u.ID)
	db.AssertExpectations(t)
}

func TestCreateUser_UniqueViolationIsConflict(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(errRow(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))

	err := s.CreateUser(ctx, &model.User{Username: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestGetUser_NoRowsIsNotFound(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{int64(7)}).Return(errRow(pgx.ErrNoRows))

	_, err := s.GetUser(ctx, 7)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateDomain_NoRowsAffectedIsNotFound(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := s.UpdateDomain(ctx, &model.Domain{ID: 9, Domain: "example.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDomain_Success(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{int64(3)}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, s.DeleteDomain(ctx, 3))
	db.AssertExpectations(t)
}

func TestListDomains_PassesOwnerFilter(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()
	now := time.Now()
	owner := int64(5)

	rows := newMockRows(func(dest ...any) error {
		*(dest[0].(*int64)) = 1
		*(dest[1].(*int64)) = owner
		*(dest[2].(*string)) = "example.com"
		*(dest[3].(*string)) = model.DomainTypePrimary
		*(dest[4].(*string)) = model.StatusActive
		*(dest[5].(*time.Time)) = now
		return nil
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{&owner}).Return(rows, nil)

	domains, err := s.ListDomains(ctx, store.ByUser(owner))
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "example.com", domains[0].Domain)
	assert.True(t, rows.closed)
}

func TestListDomains_ScanError(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	rows := newMockRows(func(...any) error { return errors.New("bad column") })
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := s.ListDomains(ctx, store.Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan domains")
}

func TestListDomains_EmptyIsNonNil(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(), nil)

	domains, err := s.ListDomains(ctx, store.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, domains)
	assert.Empty(t, domains)
}

func TestDeleteFileEntriesUnder_EscapesPrefix(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{int64(1), "/my_site", `/my\_site/%`}).
		Return(pgconn.NewCommandTag("DELETE 4"), nil)

	n, err := s.DeleteFileEntriesUnder(ctx, 1, "/my_site")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMarkNotificationsRead_ReturnsCount(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{int64(2)}).
		Return(pgconn.NewCommandTag("UPDATE 3"), nil)

	n, err := s.MarkNotificationsRead(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestServerStatsHistory_NonPositiveLimitSkipsQuery(t *testing.T) {
	db := &mockDB{}
	s := New(db)

	history, err := s.ServerStatsHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, history)
	db.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestListAuditLogs_LimitArgument(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	limit := 50
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{&limit}).Return(newMockRows(), nil)

	_, err := s.ListAuditLogs(ctx, 50)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestPing(t *testing.T) {
	db := &mockDB{}
	s := New(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, "SELECT 1", mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 1
		return nil
	}})
	assert.NoError(t, s.Ping(ctx))
}

func TestLimitArg(t *testing.T) {
	assert.Nil(t, limitArg(0))
	assert.Nil(t, limitArg(-3))
	require.NotNil(t, limitArg(10))
	assert.Equal(t, 10, *limitArg(10))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
}
