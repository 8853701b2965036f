package main

import (
	"sort"
	"strings"

	"github.com/bawdo/sqlwindow/internal/sqlcheck"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand       completionContext = iota // start of line or partial command
	contextNone                                   // free-form argument
	contextTableName                              // after from/join
	contextColumnRef                              // after select/where/having/group
	contextEngine                                 // after engine
	contextOrderDir                               // after a column ref in order context
	contextWindowName                             // after over / based on / attach
	contextWindowKeyword                          // inside a window definition
	contextRefsMode                               // after refs
	contextResetScope                             // after reset
)

var orderDirs = []string{"asc", "desc", "nulls first", "nulls last"}
var refsModes = []string{refsAuto, refsOff, refsVerify}
var resetScopes = []string{"all", "windows"}

var windowKeywords = []string{
	"and", "as", "based on", "between", "current row", "exclude", "following",
	"groups", "no others", "order by", "partition by", "preceding", "range",
	"rows", "ties", "unbounded",
}

var functionNames = []string{
	"AVG(", "COUNT(", "CUME_DIST(", "DENSE_RANK(", "FIRST_VALUE(",
	"LAG(", "LAST_VALUE(", "LEAD(", "MAX(", "MIN(", "NTH_VALUE(", "NTILE(",
	"PERCENT_RANK(", "RANK(", "ROW_NUMBER(", "SUM(",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = c.completeTableNames(prefix)
	case contextColumnRef:
		candidates = c.completeColumnRef(prefix)
	case contextEngine:
		candidates = filterPrefix(sqlcheck.Engines(), prefix)
	case contextOrderDir:
		candidates = filterPrefix(orderDirs, prefix)
	case contextWindowName:
		candidates = filterPrefix(c.sess.windowOrder, prefix)
	case contextWindowKeyword:
		candidates = filterPrefix(windowKeywords, prefix)
	case contextRefsMode:
		candidates = filterPrefix(refsModes, prefix)
	case contextResetScope:
		candidates = filterPrefix(resetScopes, prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		if !strings.HasSuffix(cand, "(") {
			suffix += " "
		}
		newLine = append(newLine, []rune(suffix))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)

	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue // exact-match commands have no arg completion
		}
		if strings.HasPrefix(lower, cmd.prefix) {
			if cmd.completer == nil {
				return contextNone, ""
			}
			return cmd.completer(line[len(cmd.prefix):])
		}
	}

	return contextCommand, strings.TrimSpace(line)
}

// completeTableNames returns registered + DB table names matching prefix.
func (c *replCompleter) completeTableNames(prefix string) []string {
	var names []string
	for name := range c.sess.tables {
		names = append(names, name)
	}
	if c.sess.conn != nil {
		names = append(names, c.sess.conn.schemaTables()...)
	}
	names = dedup(names)
	sort.Strings(names)
	return filterPrefix(names, prefix)
}

// completeColumnRef handles both table-name and table.column completion.
func (c *replCompleter) completeColumnRef(prefix string) []string {
	if table, _, ok := strings.Cut(prefix, "."); ok {
		candidates := []string{table + ".*"}
		if c.sess.conn != nil {
			for _, col := range c.sess.conn.schemaColumns(table) {
				candidates = append(candidates, table+"."+col)
			}
		}
		return filterPrefix(candidates, prefix)
	}

	candidates := c.completeTableNames(prefix)
	return append(candidates, filterPrefix(functionNames, prefix)...)
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the token being typed: the text after the last space,
// comma or opening parenthesis.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t("); i >= 0 {
		return s[i+1:]
	}
	return s
}
