package policy

import (
	"errors"
	"strings"

	"github.com/dgerlanc/hookgate/internal/logger"
	"github.com/dgerlanc/hookgate/internal/patterns"
	"mvdan.cc/sh/v3/syntax"
)

// ErrUnparseable is returned when a command cannot be parsed.
var ErrUnparseable = errors.New("unparseable command")

// SplitCommandChain returns the simple commands of a chained shell command,
// descending into subshells, blocks, conditionals and loops. Block reasons
// use it to name the segment that tripped a deny rule; the decision itself
// never depends on it. Returns ErrUnparseable if the command cannot be parsed.
func SplitCommandChain(cmd string) ([]string, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, nil
	}

	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil, ErrUnparseable
	}

	var segments []string
	printer := syntax.NewPrinter()
	for _, stmt := range prog.Stmts {
		extractCommands(stmt.Cmd, printer, &segments)
	}

	return segments, nil
}

// extractCommands appends the printed simple commands under node to segments.
func extractCommands(node syntax.Command, printer *syntax.Printer, segments *[]string) {
	if node == nil {
		return
	}

	stmts := func(list []*syntax.Stmt) {
		for _, stmt := range list {
			extractCommands(stmt.Cmd, printer, segments)
		}
	}

	switch cmd := node.(type) {
	case *syntax.BinaryCmd:
		extractCommands(cmd.X.Cmd, printer, segments)
		extractCommands(cmd.Y.Cmd, printer, segments)

	case *syntax.Subshell:
		stmts(cmd.Stmts)

	case *syntax.Block:
		stmts(cmd.Stmts)

	case *syntax.IfClause:
		for clause := cmd; clause != nil; clause = clause.Else {
			stmts(clause.Cond)
			stmts(clause.Then)
		}

	case *syntax.WhileClause:
		stmts(cmd.Cond)
		stmts(cmd.Do)

	case *syntax.ForClause:
		stmts(cmd.Do)

	case *syntax.CaseClause:
		for _, item := range cmd.Items {
			stmts(item.Stmts)
		}

	case *syntax.TimeClause:
		if cmd.Stmt != nil {
			extractCommands(cmd.Stmt.Cmd, printer, segments)
		}

	case *syntax.CoprocClause:
		if cmd.Stmt != nil {
			extractCommands(cmd.Stmt.Cmd, printer, segments)
		}

	case *syntax.FuncDecl:
		if cmd.Body != nil {
			extractCommands(cmd.Body.Cmd, printer, segments)
		}

	default:
		// CallExpr, DeclClause, LetClause, ArithmCmd, TestClause and anything newer
		var buf strings.Builder
		printer.Print(&buf, cmd)
		if s := strings.TrimSpace(buf.String()); s != "" {
			*segments = append(*segments, s)
		}
	}
}

// locateSegment returns the chained segment that triggered p, for the block
// reason. Returns "" for single-segment commands, unparseable commands, and
// matches that span segments (curl ... | sh).
func locateSegment(cmd string, p patterns.Pattern) string {
	segments, err := SplitCommandChain(cmd)
	if err != nil {
		logger.Debug("could not split command for reason", "error", err)
		return ""
	}
	if len(segments) < 2 {
		return ""
	}
	for _, seg := range segments {
		if p.Matches(seg) {
			return seg
		}
	}
	return ""
}
