package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"nlq-workers/internal/common/database"
	"nlq-workers/internal/nlq"
)

type querier interface {
	Query(ctx context.Context, maxRows int, query string, args ...interface{}) (*database.ResultSet, error)
}

// shell is one interactive user. It owns its Session and is not shared.
type shell struct {
	translator  *nlq.Translator
	store       querier // nil disables previews and execution
	session     *nlq.Session
	out         io.Writer
	execute     bool
	previewRows int
	maxRows     int
	timeout     time.Duration
}

func newShell(translator *nlq.Translator, store querier, out io.Writer) *shell {
	return &shell{
		translator:  translator,
		store:       store,
		session:     nlq.NewSession(translator.Selector()),
		out:         out,
		previewRows: 5,
		maxRows:     100,
		timeout:     30 * time.Second,
	}
}

// run reads lines until EOF or an exit command.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit", `\q`:
			return nil
		default:
			s.handle(ctx, line)
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *shell) prompt() {
	if t := s.session.Table(); t != "" {
		fmt.Fprintf(s.out, "nlq[%s]> ", t)
		return
	}
	fmt.Fprint(s.out, "nlq> ")
}

func (s *shell) handle(ctx context.Context, line string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if table, ok := s.session.SelectTable(line); ok {
		rest := strings.TrimSpace(strings.Replace(line, "@"+table, "", 1))
		if rest == "" {
			fmt.Fprintf(s.out, "selected %s\n", table)
			s.preview(ctx, table)
			return
		}
	}

	tr, err := s.translator.Translate(ctx, nlq.Request{Text: line, Table: s.session.Table()})
	if err != nil {
		if errors.Is(err, nlq.ErrNoTableSelected) {
			fmt.Fprintf(s.out, "no table selected; start with one of: @%s\n",
				strings.Join(s.translator.Library().Tables(), ", @"))
			return
		}
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	printTranslation(s.out, tr)

	if s.execute {
		s.runPlan(ctx, tr)
	}
}

func (s *shell) preview(ctx context.Context, table string) {
	if s.store == nil {
		return
	}
	plan := nlq.PreviewPlan(table, s.previewRows)
	rs, err := s.store.Query(ctx, s.previewRows, plan.SQL)
	if err != nil {
		fmt.Fprintf(s.out, "preview failed: %v\n", err)
		return
	}
	printResult(s.out, rs)
}

func (s *shell) runPlan(ctx context.Context, tr *nlq.Translation) {
	if s.store == nil {
		fmt.Fprintln(s.out, "execution unavailable: no database connection")
		return
	}
	schema := s.translator.Introspect(ctx, tr.Table)
	plan, err := s.translator.Plan(tr, schema)
	if err != nil {
		fmt.Fprintf(s.out, "not executed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "plan:     %s %v\n", plan.SQL, plan.Args)
	rs, err := s.store.Query(ctx, s.maxRows, plan.SQL, plan.Args...)
	if err != nil {
		fmt.Fprintf(s.out, "query failed: %v\n", err)
		return
	}
	printResult(s.out, rs)
}

func printTranslation(w io.Writer, tr *nlq.Translation) {
	fmt.Fprintf(w, "table:    %s\n", tr.Table)
	fmt.Fprintf(w, "intent:   %s\n", tr.Intent)
	if len(tr.Entities) > 0 {
		parts := make([]string, len(tr.Entities))
		for i, e := range tr.Entities {
			parts[i] = e.Field + "(" + e.Synonym + ")"
		}
		fmt.Fprintf(w, "entities: %s\n", strings.Join(parts, " "))
	}
	if !tr.Range.IsZero() {
		fmt.Fprintf(w, "range:    %s %s .. %s %s\n",
			tr.Range.StartDate, tr.Range.StartTime, tr.Range.EndDate, tr.Range.EndTime)
	}
	fmt.Fprintf(w, "sql:      %s\n", tr.Query.SQL)
}

func printResult(w io.Writer, rs *database.ResultSet) {
	if len(rs.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	cols := rs.Columns
	if len(cols) == 0 {
		for c := range rs.Rows[0] {
			cols = append(cols, c)
		}
		sort.Strings(cols)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range rs.Rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = fmt.Sprint(row[c])
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	tw.Flush()

	suffix := ""
	if rs.Truncated {
		suffix = ", truncated"
	}
	fmt.Fprintf(w, "(%d rows%s)\n", len(rs.Rows), suffix)
}
