package main

import (
	"sort"
	"strings"

	"github.com/bawdo/sqlwindow/nodes"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- no-arg / display commands ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "tosql", handler: func(_ string) error { return s.cmdSQL() }, hidden: true},
		{prefix: "ast", handler: func(_ string) error { return s.cmdAST() }},
		{prefix: "reset ", handler: func(a string) error { return s.cmdReset(a) }, completer: completeResetArgs},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset("") }},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},
		{prefix: "distinct", handler: func(_ string) error { return s.cmdDistinct() }},

		// --- table registration ---
		{prefix: "table ", handler: func(a string) error { return s.cmdTable(a) }},
		{prefix: "t ", handler: func(a string) error { return s.cmdTable(a) }, hidden: true},

		// --- query building ---
		{prefix: "from ", handler: func(a string) error { return s.cmdFrom(a) }, completer: completeTableArgs},
		{prefix: "select ", handler: func(a string) error { return s.cmdSelect(a) }, completer: completeColumnArgs},
		{prefix: "project ", handler: func(a string) error { return s.cmdSelect(a) }, completer: completeColumnArgs, hidden: true},
		{prefix: "where ", handler: func(a string) error { return s.cmdWhere(a) }, completer: completeColumnArgs},
		{prefix: "group ", handler: func(a string) error { return s.cmdGroup(a) }, completer: completeColumnArgs},
		{prefix: "having ", handler: func(a string) error { return s.cmdHaving(a) }, completer: completeColumnArgs},
		{prefix: "order ", handler: func(a string) error { return s.cmdOrder(a) }, completer: completeOrderArgs},
		{prefix: "limit ", handler: func(a string) error { return s.cmdLimit(a) }},
		{prefix: "offset ", handler: func(a string) error { return s.cmdOffset(a) }},
		{prefix: "left join ", handler: func(a string) error { return s.cmdJoin(a, nodes.LeftOuterJoin) }, completer: completeJoinArgs},
		{prefix: "join ", handler: func(a string) error { return s.cmdJoin(a, nodes.InnerJoin) }, completer: completeJoinArgs},

		// --- named windows ---
		{prefix: "window ", handler: func(a string) error { return s.cmdWindow(a) }, completer: completeWindowArgs},
		{prefix: "windows", handler: func(_ string) error { return s.cmdWindows() }},
		{prefix: "attach ", handler: func(a string) error { return s.cmdAttach(a) }, completer: completeWindowNames},
		{prefix: "refs ", handler: func(a string) error { return s.cmdRefs(a) }, completer: completeRefsArgs},
		{prefix: "refs", handler: func(_ string) error { return s.cmdRefs("") }},

		// --- output toggles ---
		{prefix: "parameterize", handler: func(_ string) error { return s.cmdParameterize() }, hidden: true},
		{prefix: "params", handler: func(_ string) error { return s.cmdParameterize() }},
		{prefix: "multiline", handler: func(_ string) error { return s.cmdMultiline() }},

		// --- database connectivity ---
		{prefix: "engine ", handler: func(a string) error { return s.cmdEngine(a) }, completer: completeEngineArgs},
		{prefix: "connect ", handler: func(a string) error { return s.cmdConnect(a) }},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "check", handler: func(_ string) error { return s.cmdCheck() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdRun() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdRun() }, hidden: true},
	}

	// Sort by prefix length descending so longest prefixes match first.
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// --- Shared completion helpers ---

// completeJoinArgs handles completion for join prefixes:
// table name, then column refs in the ON condition.
func completeJoinArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	if len(words) == 0 {
		return contextTableName, ""
	}
	if strings.Contains(args, " ") {
		if strings.HasSuffix(args, " ") {
			return contextColumnRef, ""
		}
		return contextColumnRef, words[len(words)-1]
	}
	return contextTableName, args
}

// completeTableArgs handles completion for single-word table commands.
func completeTableArgs(args string) (completionContext, string) {
	return contextTableName, strings.TrimSpace(args)
}

// completeColumnArgs handles completion for expression commands
// (select, where, having, group). After OVER, window names are offered.
func completeColumnArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	if strings.HasSuffix(args, " ") {
		if len(words) > 0 && strings.EqualFold(words[len(words)-1], "over") {
			return contextWindowName, ""
		}
		return contextColumnRef, ""
	}
	if len(words) > 1 && strings.EqualFold(words[len(words)-2], "over") {
		return contextWindowName, words[len(words)-1]
	}
	return contextColumnRef, lastToken(args)
}

// completeOrderArgs handles completion for the order command:
// column refs, then direction (asc/desc/nulls) after a column.
func completeOrderArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") {
		parts := strings.Fields(args)
		if len(parts) > 0 && strings.Contains(parts[len(parts)-1], ".") {
			return contextOrderDir, ""
		}
		return contextColumnRef, ""
	}
	last := lastToken(args)
	switch strings.ToLower(last) {
	case "a", "as", "d", "de", "des", "n", "nu", "nul", "null", "nulls":
		return contextOrderDir, last
	}
	return contextColumnRef, last
}

// completeWindowArgs handles completion for the window command: the first
// word is the new window's name (no completion), then sub-clause keywords,
// base window names after "based on", and column refs inside lists.
func completeWindowArgs(args string) (completionContext, string) {
	words := strings.Fields(args)
	if len(words) <= 1 && !strings.HasSuffix(args, " ") {
		return contextNone, ""
	}
	last := lastToken(args)
	prev := ""
	if strings.HasSuffix(args, " ") {
		last = ""
		if len(words) > 0 {
			prev = strings.ToLower(words[len(words)-1])
		}
	} else if len(words) > 1 {
		prev = strings.ToLower(words[len(words)-2])
	}
	switch prev {
	case "on":
		return contextWindowName, last
	case "by", ",":
		return contextColumnRef, last
	}
	if strings.Contains(last, ".") {
		return contextColumnRef, last
	}
	return contextWindowKeyword, last
}

// completeWindowNames completes defined window names.
func completeWindowNames(args string) (completionContext, string) {
	return contextWindowName, lastToken(args)
}

// completeRefsArgs completes window refs modes.
func completeRefsArgs(args string) (completionContext, string) {
	return contextRefsMode, strings.TrimSpace(args)
}

// completeResetArgs completes reset scopes.
func completeResetArgs(args string) (completionContext, string) {
	return contextResetScope, strings.TrimSpace(args)
}

// completeEngineArgs handles completion for the engine command.
func completeEngineArgs(args string) (completionContext, string) {
	return contextEngine, strings.TrimSpace(args)
}
