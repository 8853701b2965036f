package sqlcheck

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T, engine string) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return New(db, engine), mock
}

func TestEngines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"postgres", "mysql", "sqlite"}, Engines())
}

func TestOpenUnknownEngine(t *testing.T) {
	t.Parallel()
	c, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrUnknownEngine)
	assert.Contains(t, err.Error(), `"oracle"`)
}

func TestOpenBadDSN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		engine string
		dsn    string
		want   string
	}{
		{"postgres", "postgres://[::1", "parse postgres dsn"},
		{"mysql", "no-slash-here", "parse mysql dsn"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.engine, func(t *testing.T) {
			t.Parallel()
			_, err := Open(context.Background(), tt.engine, tt.dsn)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()
	c, mock := newMock(t, SQLite)
	assert.Equal(t, SQLite, c.Engine())
	assert.NotNil(t, c.DB())
	assert.NotNil(t, c.logger)

	mock.ExpectClose()
	require.NoError(t, c.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithLoggerNilKeepsDiscard(t *testing.T) {
	t.Parallel()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	c := New(db, Postgres, WithLogger(nil))
	assert.NotNil(t, c.logger)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr string
	}{
		{
			name: "accepted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(regexp.QuoteMeta("SELECT 1 WINDOW w AS ()")).WillBeClosed()
			},
		},
		{
			name: "rejected",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(regexp.QuoteMeta("SELECT 1 WINDOW w AS ()")).
					WillReturnError(errors.New(`syntax error at or near "WINDOW"`))
			},
			wantErr: `sqlcheck: postgres rejected statement: syntax error at or near "WINDOW"`,
		},
		{
			name: "close fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(regexp.QuoteMeta("SELECT 1 WINDOW w AS ()")).
					WillReturnCloseError(errors.New("broken pipe"))
			},
			wantErr: "sqlcheck: close statement: broken pipe",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, mock := newMock(t, Postgres)
			tt.setup(mock)

			err := c.Check(context.Background(), "SELECT 1 WINDOW w AS ()")
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tt.wantErr)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheckClosedDatabase(t *testing.T) {
	t.Parallel()
	c, mock := newMock(t, Postgres)
	mock.ExpectClose()
	require.NoError(t, c.Close())

	err := c.Check(context.Background(), "SELECT 1")
	require.ErrorContains(t, err, "sqlcheck: acquire connection: sql: database is closed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReusesConnection(t *testing.T) {
	t.Parallel()
	c, mock := newMock(t, Postgres)
	for i := 0; i < 3; i++ {
		mock.ExpectPrepare(regexp.QuoteMeta("SELECT 1")).WillBeClosed()
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Check(context.Background(), "SELECT 1"))
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTablesPerEngine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		engine string
		query  string
	}{
		{Postgres, "FROM information_schema.tables WHERE table_schema = current_schema()"},
		{MySQL, "FROM information_schema.tables WHERE table_schema = DATABASE()"},
		{SQLite, "FROM sqlite_master WHERE type = 'table'"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.engine, func(t *testing.T) {
			t.Parallel()
			c, mock := newMock(t, tt.engine)
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).
				WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("prices").AddRow("trades"))

			got, err := c.Tables(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"prices", "trades"}, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestColumns(t *testing.T) {
	t.Parallel()
	c, mock := newMock(t, SQLite)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM pragma_table_info(?)")).
		WithArgs("prices").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("symbol").AddRow("ts").AddRow("price"))

	got, err := c.Columns(context.Background(), "prices")
	require.NoError(t, err)
	assert.Equal(t, []string{"symbol", "ts", "price"}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaQueryErrors(t *testing.T) {
	t.Parallel()

	t.Run("query", func(t *testing.T) {
		t.Parallel()
		c, mock := newMock(t, Postgres)
		mock.ExpectQuery("information_schema").WillReturnError(errors.New("permission denied"))
		_, err := c.Tables(context.Background())
		require.EqualError(t, err, "sqlcheck: schema query: permission denied")
	})

	t.Run("rows", func(t *testing.T) {
		t.Parallel()
		c, mock := newMock(t, MySQL)
		mock.ExpectQuery("information_schema").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").RowError(0, errors.New("lost connection")))
		_, err := c.Columns(context.Background(), "a")
		require.EqualError(t, err, "sqlcheck: rows: lost connection")
	})

	t.Run("unknown engine", func(t *testing.T) {
		t.Parallel()
		c, _ := newMock(t, "oracle")
		_, err := c.Tables(context.Background())
		require.ErrorIs(t, err, ErrUnknownEngine)
		_, err = c.Columns(context.Background(), "a")
		require.ErrorIs(t, err, ErrUnknownEngine)
	})
}
