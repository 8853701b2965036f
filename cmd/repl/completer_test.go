package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completions returns the suffixes offered for line with the cursor at the end.
func completions(sess *Session, line string) []string {
	c := &replCompleter{sess: sess}
	suffixes, _ := c.Do([]rune(line), len([]rune(line)))
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = string(s)
	}
	return out
}

func TestCommandNames(t *testing.T) {
	t.Parallel()
	names := newTestSession(t).commandNames()
	for _, want := range []string{"window", "windows", "attach", "refs", "sql", "check", "run", "exit", "quit"} {
		assert.Contains(t, names, want)
	}
	for _, hidden := range []string{"tosql", "project", "parameterize", "exec", "t"} {
		assert.NotContains(t, names, hidden)
	}
	assert.IsNonDecreasing(t, names)
}

func TestCompleteCommand(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t)
	assert.Equal(t, []string{"ndow ", "ndows "}, completions(sess, "wi"))

	c := &replCompleter{sess: sess}
	_, length := c.Do([]rune("wi"), 2)
	assert.Equal(t, 2, length)
}

func TestCompleteWindowNames(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "window by_symbol as (partition by t.s)", "window by_day as (partition by t.d)", "window rolling")

	assert.Equal(t, []string{"by_symbol ", "by_day ", "rolling "}, completions(sess, "select count(*) over "))
	assert.Equal(t, []string{"_symbol ", "_day "}, completions(sess, "select sum(t.v) over by"))
	assert.Equal(t, []string{"olling "}, completions(sess, "attach by_day, r"))
	assert.Equal(t, []string{"by_symbol ", "by_day ", "rolling "}, completions(sess, "window w based on "))
}

func TestCompleteWindowKeywords(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t)

	assert.Empty(t, completions(sess, "window w"))
	assert.Equal(t, []string{"rtition by "}, completions(sess, "window w as (pa"))
	assert.Equal(t, []string{"ange ", "ows "}, completions(sess, "window w as (order by t.a r"))
	assert.Equal(t, []string{"* "}, completions(sess, "window w as (partition by t."))
}

func TestCompleteColumnRefs(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t, "table users", "table orders")

	assert.Equal(t, []string{"sers "}, completions(sess, "select u"))
	assert.Equal(t, []string{"* "}, completions(sess, "select users."))
	assert.Equal(t, []string{"UNT("}, completions(sess, "select users.id, co"))
	assert.Equal(t, []string{"rders "}, completions(sess, "from o"))
	assert.Equal(t, []string{"rders "}, completions(sess, "join o"))
}

func TestCompleteArguments(t *testing.T) {
	t.Parallel()
	sess := newTestSession(t)

	assert.Equal(t, []string{"uto "}, completions(sess, "refs a"))
	assert.Equal(t, []string{"indows "}, completions(sess, "reset w"))
	assert.Equal(t, []string{"ostgres "}, completions(sess, "engine p"))
	require.Equal(t, []string{"asc ", "desc ", "nulls first ", "nulls last "}, completions(sess, "order t.a "))
	assert.Equal(t, []string{"esc "}, completions(sess, "order t.a d"))
	assert.Empty(t, completions(sess, "limit 1"))
}

func TestLastToken(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "t.a", lastToken("sum(t.a"))
	assert.Equal(t, "b", lastToken("a, b"))
	assert.Equal(t, "", lastToken("over "))
	assert.Equal(t, "word", lastToken("word"))
}
