package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlwindow/nodes"
)

func testConfig() *Config {
	return &Config{Engine: "sqlite", LogLevel: "warn", WindowRefs: refsVerify}
}

func newTestSession(t *testing.T, commands ...string) *Session {
	t.Helper()
	sess := NewSession(testConfig(), nil)
	sess.out = io.Discard
	for _, cmd := range commands {
		require.NoError(t, sess.Execute(cmd), "command %q", cmd)
	}
	return sess
}

// execSQL executes commands then returns the generated SQL.
func execSQL(t *testing.T, commands ...string) string {
	t.Helper()
	sess := newTestSession(t, commands...)
	sql, _, err := sess.GenerateSQL(sess.visitor())
	require.NoError(t, err)
	return sql
}

func TestNamedWindowOverSelect(t *testing.T) {
	t.Parallel()
	got := execSQL(t,
		"from prices",
		"window w as (partition by prices.symbol order by prices.ts)",
		"select prices.symbol, first_value(prices.price) over w as open",
	)
	assert.Equal(t, `SELECT "prices"."symbol", FIRST_VALUE("prices"."price") OVER w AS "open" FROM "prices" `+
		`WINDOW w AS (PARTITION BY "prices"."symbol" ORDER BY "prices"."ts")`, got)
}

func TestWindowDefinitions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		def  string
		want string
	}{
		{"empty", "w", "w AS ()"},
		{"empty parens", "w as ()", "w AS ()"},
		{"no as", "w (partition by t.a)", `w AS (PARTITION BY "t"."a")`},
		{"order direction", "w as (order by t.a desc nulls last, t.b asc)", `w AS (ORDER BY "t"."a" DESC NULLS LAST, "t"."b" ASC)`},
		{"rows between", "w as (order by t.a rows between 3 preceding and current row)", `w AS (ORDER BY "t"."a" ROWS BETWEEN 3 PRECEDING AND CURRENT ROW)`},
		{"single bound", "w as (order by t.a rows unbounded preceding)", `w AS (ORDER BY "t"."a" ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW)`},
		{"range unbounded", "w as (range between unbounded preceding and unbounded following)", "w AS (RANGE BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING)"},
		{"range offsets", "w as (order by t.a range between 5 preceding and 10 following)", `w AS (ORDER BY "t"."a" RANGE BETWEEN 5 PRECEDING AND 10 FOLLOWING)`},
		{"groups following", "w as (order by t.a groups between 1 following and 2 following)", `w AS (ORDER BY "t"."a" GROUPS BETWEEN 1 FOLLOWING AND 2 FOLLOWING)`},
		{"zero offset is current row", "w as (rows between 0 preceding and 0 following)", "w AS (ROWS BETWEEN CURRENT ROW AND CURRENT ROW)"},
		{"exclude", "w as (order by t.a rows between 1 preceding and 1 following exclude current row)", `w AS (ORDER BY "t"."a" ROWS BETWEEN 1 PRECEDING AND 1 FOLLOWING EXCLUDE CURRENT ROW)`},
		{"exclude no others", "w as (rows unbounded preceding exclude no others)", "w AS (ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW EXCLUDE NO OTHERS)"},
		{"keywords any case", "w AS (PARTITION BY t.a ORDER BY t.b ROWS BETWEEN 2 PRECEDING AND CURRENT ROW EXCLUDE TIES)", `w AS (PARTITION BY "t"."a" ORDER BY "t"."b" ROWS BETWEEN 2 PRECEDING AND CURRENT ROW EXCLUDE TIES)`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := execSQL(t, "from t", "window "+tt.def)
			assert.Equal(t, `SELECT * FROM "t" WINDOW `+tt.want, got)
		})
	}
}

func TestWindowBasedOn(t *testing.T) {
	t.Parallel()
	got := execSQL(t,
		"from prices",
		"window base as (partition by prices.symbol)",
		"window ordered as (base order by prices.ts)",
		"window trailing based on ordered rows between 2 preceding and current row",
		"select avg(prices.price) over trailing",
	)
	assert.Equal(t, `SELECT AVG("prices"."price") OVER trailing FROM "prices" WINDOW `+
		`base AS (PARTITION BY "prices"."symbol"), `+
		`ordered AS (base ORDER BY "prices"."ts"), `+
		`trailing AS (ordered ROWS BETWEEN 2 PRECEDING AND CURRENT ROW)`, got)
}

func TestWindowErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		setup   []string
		cmd     string
		wantErr string
		invalid bool
	}{
		{"override partition", []string{"window base as (partition by t.a)"}, "window w as (base partition by t.b)",
			`cannot override PARTITION BY clause of window "base"`, true},
		{"override order", []string{"window base as (order by t.a)"}, "window w as (base order by t.b)",
			`cannot override ORDER BY clause of window "base"`, true},
		{"unknown base", nil, "window w based on nope", `unknown window "nope"`, false},
		{"bad name", nil, "window 1w as ()", "is not a plain identifier", true},
		{"duplicate", []string{"window w"}, "window w as ()", `window "w" is already defined`, false},
		{"unbounded following as lower", nil, "window w as (rows between unbounded following and current row)", "frame lower bound", false},
		{"unbounded preceding as upper", nil, "window w as (rows between current row and unbounded preceding)", "frame upper bound", false},
		{"negative offset", nil, "window w as (rows between -1 preceding and current row)", "non-negative frame offset", false},
		{"missing and", nil, "window w as (rows between 1 preceding)", "expected AND", false},
		{"missing direction", nil, "window w as (rows 3)", "PRECEDING or FOLLOWING", false},
		{"unknown exclusion", nil, "window w as (rows unbounded preceding exclude everything)", "unknown frame exclusion", true},
		{"unclosed", nil, "window w as (partition by t.a", "expected )", false},
		{"trailing garbage", nil, "window w as () extra", `unexpected token "extra"`, false},
		{"empty partition", nil, "window w as (partition by order by t.a)", "expected at least one expression", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sess := newTestSession(t, tt.setup...)
			err := sess.Execute(tt.cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.invalid {
				assert.ErrorIs(t, err, nodes.ErrInvalidArgument)
			}
		})
	}
}

func TestFramedBaseReportedAtRender(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t,
		"from t",
		"window base as (order by t.a rows unbounded preceding)",
		"window w as (base)",
		"select count(*) over w",
	)
	_, _, err := sess.GenerateSQL(sess.visitor())
	require.ErrorIs(t, err, nodes.ErrInvalidArgument)
	assert.Contains(t, err.Error(), `window "w" cannot be based on "base" because it has a frame clause`)

	require.NoError(t, sess.Execute("refs off"))
	sql, _, err := sess.GenerateSQL(sess.visitor())
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) OVER w FROM "t" WINDOW base AS (ORDER BY "t"."a" ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW), w AS (base)`, sql)
}

func TestWindowClausePlacement(t *testing.T) {
	t.Parallel()
	got := execSQL(t,
		"from trades",
		"window w as (partition by trades.sym)",
		"select trades.sym, sum(trades.qty) over w",
		"where trades.qty > 0",
		"group trades.sym, trades.qty",
		"having count(*) > 1",
		"order trades.sym desc",
		"limit 10",
		"offset 5",
	)
	assert.Equal(t, `SELECT "trades"."sym", SUM("trades"."qty") OVER w FROM "trades" `+
		`WHERE "trades"."qty" > 0 GROUP BY "trades"."sym", "trades"."qty" HAVING COUNT(*) > 1 `+
		`WINDOW w AS (PARTITION BY "trades"."sym") ORDER BY "trades"."sym" DESC LIMIT 10 OFFSET 5`, got)
}

func TestRefsModes(t *testing.T) {
	t.Parallel()
	cmds := []string{"window w as (partition by t.a)", "from t", "select count(*) over w"}

	t.Run("verify", func(t *testing.T) {
		t.Parallel()
		sess := newTestSession(t, cmds...)
		_, _, err := sess.GenerateSQL(sess.visitor())
		require.ErrorIs(t, err, nodes.ErrInvalidArgument)
		assert.Contains(t, err.Error(), `window "w" is referenced but not attached`)
	})

	t.Run("auto", func(t *testing.T) {
		t.Parallel()
		sess := newTestSession(t, append([]string{"refs auto"}, cmds...)...)
		sql, _, err := sess.GenerateSQL(sess.visitor())
		require.NoError(t, err)
		assert.Equal(t, `SELECT COUNT(*) OVER w FROM "t" WINDOW w AS (PARTITION BY "t"."a")`, sql)
	})

	t.Run("off", func(t *testing.T) {
		t.Parallel()
		sess := newTestSession(t, append([]string{"refs off"}, cmds...)...)
		sql, _, err := sess.GenerateSQL(sess.visitor())
		require.NoError(t, err)
		assert.Equal(t, `SELECT COUNT(*) OVER w FROM "t"`, sql)
	})

	t.Run("switch on existing query", func(t *testing.T) {
		t.Parallel()
		sess := newTestSession(t, append(cmds, "refs auto")...)
		sql, _, err := sess.GenerateSQL(sess.visitor())
		require.NoError(t, err)
		assert.Contains(t, sql, "WINDOW w AS")
	})

	t.Run("bad mode", func(t *testing.T) {
		t.Parallel()
		sess := newTestSession(t)
		require.Error(t, sess.Execute("refs sometimes"))
	})
}

func TestAttach(t *testing.T) {
	t.Parallel()
	got := execSQL(t,
		"window a as (partition by t.x)",
		"window b as (a order by t.y)",
		"from t",
		"attach a, b",
		"select row_number() over b",
	)
	assert.Equal(t, `SELECT ROW_NUMBER() OVER b FROM "t" WINDOW a AS (PARTITION BY "t"."x"), b AS (a ORDER BY "t"."y")`, got)

	sess := newTestSession(t, "from t")
	require.ErrorContains(t, sess.Execute("attach nope"), `unknown window "nope"`)
}

func TestOverErrors(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "from t")
	require.ErrorContains(t, sess.Execute("select count(*) over nope"), `unknown window "nope"`)
	require.ErrorContains(t, sess.Execute("select count(*) over (partition by t.a)"), "inline window definitions are not supported")
	require.ErrorContains(t, sess.Execute("select count(*) over"), "expected window name")
}

func TestCommandsRequireQuery(t *testing.T) {
	t.Parallel()
	for _, cmd := range []string{
		"select t.a", "where t.a = 1", "group t.a", "having t.a = 1", "order t.a",
		"limit 1", "offset 1", "distinct", "attach w", "join u on u.a = t.a", "sql", "ast",
	} {
		sess := newTestSession(t)
		assert.ErrorIs(t, sess.Execute(cmd), errNoQuery, cmd)
	}
}

func TestWindowDefinedBeforeFromIsNotAttached(t *testing.T) {
	t.Parallel()
	got := execSQL(t, "window w", "from t")
	assert.Equal(t, `SELECT * FROM "t"`, got)
}

func TestSQLOutputWithParams(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "params", "from t", "where t.name = 'x' and t.n >= 3")
	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("sql"))
	assert.Equal(t, "  SELECT * FROM \"t\" WHERE \"t\".\"name\" = $1 AND \"t\".\"n\" >= $2;\n  Params: [x 3]\n", buf.String())
}

func TestSQLOutputMultiline(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t,
		"multiline",
		"from t",
		"window a as (partition by t.x)",
		"window b as (order by t.y)",
		"select count(*) over a, count(*) over b",
	)
	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("sql"))
	assert.Equal(t, "  SELECT COUNT(*) OVER a, COUNT(*) OVER b\n"+
		"FROM \"t\"\n"+
		"WINDOW a AS (PARTITION BY \"t\".\"x\"),\n"+
		"       b AS (ORDER BY \"t\".\"y\");\n", buf.String())
}

func TestWindowsListing(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "window a as (partition by t.x)", "from t", "window b as (a order by t.y)")
	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("windows"))
	assert.Equal(t, "    a AS (PARTITION BY \"t\".\"x\")\n  * b AS (a ORDER BY \"t\".\"y\")\n", buf.String())

	buf.Reset()
	require.NoError(t, sess.Execute("reset windows"))
	require.NoError(t, sess.Execute("windows"))
	assert.Contains(t, buf.String(), "No windows defined")
}

func TestAST(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t,
		"window base as (partition by t.x)",
		"from t",
		"window w as (base order by t.y)",
		"select t.x, sum(t.v) over w as total",
		"order t.x desc",
	)
	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("ast"))
	out := buf.String()
	assert.Contains(t, out, "FROM:   t\n")
	assert.Contains(t, out, `SELECT: t.x, SUM("t"."v") OVER w AS total`)
	assert.Contains(t, out, "WINDOW: base <- w\n")
	assert.Contains(t, out, "ORDER:  t.x DESC\n")
	assert.Contains(t, out, "Window refs: verify\n")
}

func TestASTShowsUnattachedReferences(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "window w", "from t", "select count(*) over w")
	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("ast"))
	assert.Contains(t, buf.String(), "OVER:   w (not attached)")
}

func TestReset(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "table u", "window w", "from t")

	require.NoError(t, sess.Execute("reset"))
	assert.Nil(t, sess.query)
	assert.Len(t, sess.windows, 1)

	require.NoError(t, sess.Execute("reset all"))
	assert.Empty(t, sess.windows)
	assert.Empty(t, sess.tables)

	require.Error(t, sess.Execute("reset everything"))
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t)
	require.EqualError(t, sess.Execute("frobnicate now"), "unknown command: frobnicate (type 'help' for commands)")
	require.NoError(t, sess.Execute("   "))
}

func TestEngineCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "engine postgres")
	assert.Equal(t, "postgres", sess.engine)
	require.ErrorContains(t, sess.Execute("engine oracle"), `unknown engine "oracle"`)
}

func TestCheckAndRunAgainstSQLite(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "connect :memory:")
	t.Cleanup(sess.close)

	db := sess.conn.checker.DB()
	_, err := db.ExecContext(context.Background(), `CREATE TABLE prices (symbol TEXT, ts INTEGER, price INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), `INSERT INTO prices VALUES ('a', 1, 10), ('a', 2, 20), ('b', 1, 5)`)
	require.NoError(t, err)

	for _, cmd := range []string{
		"from prices",
		"window w as (partition by prices.symbol order by prices.ts rows between unbounded preceding and current row)",
		"select prices.symbol, prices.ts, sum(prices.price) over w as running",
		"where prices.price > 0",
		"order prices.symbol, prices.ts",
	} {
		require.NoError(t, sess.Execute(cmd), cmd)
	}

	var buf bytes.Buffer
	sess.out = &buf
	require.NoError(t, sess.Execute("check"))
	assert.Equal(t, "  OK: sqlite accepted the statement\n", buf.String())

	buf.Reset()
	require.NoError(t, sess.Execute("run"))
	assert.Contains(t, buf.String(), "| symbol | ts | running |")
	assert.Contains(t, buf.String(), "| a      | 2  | 30      |")
	assert.Contains(t, buf.String(), "(3 rows)")

	require.ErrorContains(t, sess.Execute("engine postgres"), "cannot change engine while connected")
	require.ErrorContains(t, sess.Execute("connect :memory:"), "already connected")

	require.NoError(t, sess.Execute("disconnect"))
	require.ErrorContains(t, sess.Execute("check"), "not connected")
	require.ErrorContains(t, sess.Execute("run"), "not connected")
	require.ErrorContains(t, sess.Execute("disconnect"), "not connected")
}

func TestCheckRejectsUnknownWindow(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "refs off", "connect :memory:")
	t.Cleanup(sess.close)
	_, err := sess.conn.checker.DB().ExecContext(context.Background(), `CREATE TABLE t (a INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, sess.Execute("window w"))
	require.NoError(t, sess.Execute("from t"))
	require.NoError(t, sess.Execute("select count(*) over w"))
	require.ErrorContains(t, sess.Execute("check"), "sqlcheck: sqlite rejected statement")
}

func TestConnectWithoutDSN(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t)
	require.EqualError(t, sess.Execute("connect"), "usage: connect <dsn>")
}
