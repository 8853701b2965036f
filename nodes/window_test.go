package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/sqlwindow/internal/testutil"
	"github.com/bawdo/sqlwindow/nodes"
)

func TestNewWindowBuildsDefinition(t *testing.T) {
	t.Parallel()
	tbl := nodes.NewTable("t")
	w, err := nodes.NewWindow("w",
		nodes.PartitionBy(tbl.Col("a")),
		nodes.OrderBy(tbl.Col("b").Desc()),
		nodes.Rows([2]any{nil, 0}),
		nodes.Exclude(nodes.ExcludeTies),
	)
	require.NoError(t, err)

	assert.Equal(t, "w", w.Name())
	assert.Nil(t, w.Base())
	assert.Len(t, w.PartitionBy(), 1)
	assert.Len(t, w.OrderBy(), 1)
	f, ok := w.Frame()
	require.True(t, ok)
	assert.Equal(t, nodes.FrameRows, f.Kind)
	assert.Equal(t, nodes.BoundUnbounded, f.Lower.Type)
	assert.Equal(t, nodes.BoundCurrentRow, f.Upper.Type)
	assert.Equal(t, nodes.ExcludeTies, w.Exclude())
	testutil.AssertSQL(t, testutil.StubVisitor{}, w, "w(partition,order,frame)")
}

func TestNewWindowEmpty(t *testing.T) {
	t.Parallel()
	w, err := nodes.NewWindow("w")
	require.NoError(t, err)
	_, ok := w.Frame()
	assert.False(t, ok)
	assert.Empty(t, w.PartitionBy())
	assert.Empty(t, w.OrderBy())
	testutil.AssertSQL(t, testutil.StubVisitor{}, w, "w()")
}

func TestNewWindowRejectsBadNames(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", "1w", "w x", `w"`, "w;drop", "wé"} {
		_, err := nodes.NewWindow(name)
		testutil.RequireInvalidArgument(t, err, "not a plain identifier")
	}
	for _, name := range []string{"w", "_w", "w1", "win_2"} {
		_, err := nodes.NewWindow(name)
		assert.NoError(t, err, name)
	}
}

func TestFrameKindsAreMutuallyExclusive(t *testing.T) {
	t.Parallel()
	spec := [2]any{nil, nil}
	tests := []struct {
		name string
		opts []nodes.WindowOption
	}{
		{"range and rows", []nodes.WindowOption{nodes.Range(spec), nodes.Rows(spec)}},
		{"range and groups", []nodes.WindowOption{nodes.Range(spec), nodes.Groups(spec)}},
		{"rows and groups", []nodes.WindowOption{nodes.Rows(spec), nodes.Groups(spec)}},
		{"all three", []nodes.WindowOption{nodes.Range(spec), nodes.Rows(spec), nodes.Groups(spec)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := nodes.NewWindow("w", tt.opts...)
			testutil.RequireInvalidArgument(t, err, "mutually exclusive")
		})
	}
}

func TestNilFrameSpecLeavesFrameUnset(t *testing.T) {
	t.Parallel()
	w, err := nodes.NewWindow("w", nodes.Range([2]int{-1, 1}), nodes.Rows(nil))
	require.NoError(t, err)
	f, ok := w.Frame()
	require.True(t, ok)
	assert.Equal(t, nodes.FrameRange, f.Kind)

	w, err = nodes.NewWindow("w", nodes.Groups(nil))
	require.NoError(t, err)
	_, ok = w.Frame()
	assert.False(t, ok)
}

func TestNewWindowPropagatesFrameErrors(t *testing.T) {
	t.Parallel()
	_, err := nodes.NewWindow("w", nodes.Rows([]int{1, 2, 3}))
	testutil.RequireInvalidArgument(t, err, "2-tuple expected")

	_, err = nodes.NewWindow("w", nodes.Groups([]any{"x", 1}))
	testutil.RequireInvalidArgument(t, err, "int or nil expected")
}

func TestNewWindowRejectsUnknownExclusion(t *testing.T) {
	t.Parallel()
	_, err := nodes.NewWindow("w", nodes.Rows([2]any{nil, 0}), nodes.Exclude(nodes.FrameExclusion(9)))
	testutil.RequireInvalidArgument(t, err, "exclude must be one of")
}

func TestWindowInheritance(t *testing.T) {
	t.Parallel()
	tbl := nodes.NewTable("t")
	partitioned := nodes.MustWindow("partitioned", nodes.PartitionBy(tbl.Col("a")))
	ordered := nodes.MustWindow("ordered", nodes.OrderBy(tbl.Col("b")))
	framed := nodes.MustWindow("framed", nodes.Rows([2]any{nil, 0}))

	t.Run("add order to partitioned base", func(t *testing.T) {
		t.Parallel()
		w, err := nodes.NewWindow("w", nodes.BasedOn(partitioned), nodes.OrderBy(tbl.Col("b")))
		require.NoError(t, err)
		assert.Same(t, partitioned, w.Base())
		assert.Empty(t, w.PartitionBy())
		testutil.AssertSQL(t, testutil.StubVisitor{}, w, "w(base,order)")
	})

	t.Run("add frame to ordered base", func(t *testing.T) {
		t.Parallel()
		_, err := nodes.NewWindow("w", nodes.BasedOn(ordered), nodes.Range([2]any{nil, 0}))
		require.NoError(t, err)
	})

	t.Run("partition by is never overridden", func(t *testing.T) {
		t.Parallel()
		_, err := nodes.NewWindow("w", nodes.BasedOn(ordered), nodes.PartitionBy(tbl.Col("a")))
		testutil.RequireInvalidArgument(t, err, `cannot override PARTITION BY clause of window "ordered"`)
	})

	t.Run("order by is not overridden", func(t *testing.T) {
		t.Parallel()
		_, err := nodes.NewWindow("w", nodes.BasedOn(ordered), nodes.OrderBy(tbl.Col("c")))
		testutil.RequireInvalidArgument(t, err, `cannot override ORDER BY clause of window "ordered"`)
	})

	t.Run("framed base is accepted", func(t *testing.T) {
		t.Parallel()
		w, err := nodes.NewWindow("w", nodes.BasedOn(framed))
		require.NoError(t, err)
		assert.Same(t, framed, w.Base())
		_, ok := w.Frame()
		assert.False(t, ok)
		testutil.AssertSQL(t, testutil.StubVisitor{}, w, "w(base)")
	})
}

func TestMustWindowPanics(t *testing.T) {
	t.Parallel()
	assert.PanicsWithValue(t,
		"sqlwindow: invalid argument: range, rows and groups are mutually exclusive",
		func() { nodes.MustWindow("w", nodes.Rows(nodes.Span{}), nodes.Range(nodes.Span{})) },
	)
}

func TestWindowAccessorsReturnCopies(t *testing.T) {
	t.Parallel()
	tbl := nodes.NewTable("t")
	a, b := tbl.Col("a"), tbl.Col("b")
	parts := []nodes.Node{a}
	w := nodes.MustWindow("w", nodes.PartitionBy(parts...), nodes.OrderBy(b))

	parts[0] = b
	got := w.PartitionBy()
	got[0] = b
	w.OrderBy()[0] = a

	assert.Same(t, a, w.PartitionBy()[0])
	assert.Same(t, b, w.OrderBy()[0])
}

func TestParseFrameExclusion(t *testing.T) {
	t.Parallel()
	tests := map[string]nodes.FrameExclusion{
		"current row":  nodes.ExcludeCurrentRow,
		"CURRENT_ROW":  nodes.ExcludeCurrentRow,
		"group":        nodes.ExcludeGroup,
		"Ties":         nodes.ExcludeTies,
		" no   others": nodes.ExcludeNoOthers,
	}
	for in, want := range tests {
		got, err := nodes.ParseFrameExclusion(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.NotEmpty(t, got.String())
	}
	_, err := nodes.ParseFrameExclusion("others")
	testutil.RequireInvalidArgument(t, err, "unknown frame exclusion")
	assert.Empty(t, nodes.FrameExclusion(0).String())
}
