package nlq

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/reflect/protoreflect"
)

var ErrQueryRejected = errors.New("QUERY_REJECTED")

var (
	fencePattern = regexp.MustCompile("(?s)```(?:sql|SQL)?\\s*(.*?)```")
	selectStart  = regexp.MustCompile(`(?is)\bselect\b.*`)
)

// allowedFunctions lists the calls a read query may make. Anything else, pg_sleep and
// the file and large-object helpers included, is refused.
var allowedFunctions = map[string]struct{}{
	"count": {}, "sum": {}, "avg": {}, "min": {}, "max": {}, "lower": {}, "upper": {},
	"coalesce": {}, "now": {}, "date": {}, "date_trunc": {}, "length": {}, "round": {},
	"abs": {}, "btrim": {}, "extract": {}, "date_part": {},
}

// Guard decides whether a candidate query string may run against the store. It accepts
// one read-only SELECT over the selected table and, when columns are known, only
// identifiers drawn from that column list.
//
// Statements are parsed with the PostgreSQL grammar, so literal forms such as dollar
// quoting and E'' escapes are read exactly as the server reads them.
type Guard struct{}

func NewGuard() *Guard { return &Guard{} }

// ExtractSQL pulls the query out of a completion: code fences are unwrapped and any prose
// before the first SELECT is dropped.
func ExtractSQL(completion string) string {
	text := completion
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if m := selectStart.FindString(text); m != "" {
		text = m
	}
	return strings.TrimSpace(text)
}

// Check returns nil when sql is safe to run. Errors wrap ErrQueryRejected.
func (g *Guard) Check(sql, table string, columns []string) error {
	if strings.TrimSpace(sql) == "" {
		return reject("empty query")
	}

	tree, err := pg_query.Parse(sql)
	if err != nil {
		return reject(err.Error())
	}
	switch n := len(tree.GetStmts()); {
	case n == 0:
		return reject("empty query")
	case n > 1:
		return reject("multiple statements")
	}

	sel := tree.GetStmts()[0].GetStmt().GetSelectStmt()
	if sel == nil {
		return reject("only SELECT statements are allowed")
	}
	if op := sel.GetOp(); op != pg_query.SetOperation_SETOP_NONE && op != pg_query.SetOperation_SET_OPERATION_UNDEFINED {
		return reject("set operations (UNION, INTERSECT, EXCEPT) are not allowed")
	}
	if sel.GetIntoClause() != nil {
		return reject("SELECT INTO is not allowed")
	}
	if sel.GetWithClause() != nil {
		return reject("WITH is not allowed")
	}
	if len(sel.GetLockingClause()) > 0 {
		return reject("row locking is not allowed")
	}

	from := sel.GetFromClause()
	if len(from) != 1 {
		return reject(fmt.Sprintf("expected exactly one FROM item, found %d", len(from)))
	}
	if from[0].GetJoinExpr() != nil {
		return reject("JOIN is not allowed")
	}
	rv := from[0].GetRangeVar()
	if rv == nil {
		return reject("FROM must name a table")
	}
	if s := rv.GetSchemaname(); s != "" && !strings.EqualFold(s, "public") {
		return reject(fmt.Sprintf("schema %s is not allowed", s))
	}
	if !strings.EqualFold(rv.GetRelname(), table) {
		return reject(fmt.Sprintf("query targets %s, selected table is %s", rv.GetRelname(), table))
	}

	known := map[string]struct{}{strings.ToLower(table): {}}
	if a := rv.GetAlias().GetAliasname(); a != "" {
		known[strings.ToLower(a)] = struct{}{}
	}
	for _, c := range columns {
		known[strings.ToLower(c)] = struct{}{}
	}

	var refs []string
	err = walkTree(sel.ProtoReflect(), func(m protoreflect.ProtoMessage) error {
		switch n := m.(type) {
		case *pg_query.SubLink, *pg_query.RangeSubselect:
			return reject("subqueries are not allowed")
		case *pg_query.JoinExpr:
			return reject("JOIN is not allowed")
		case *pg_query.RangeFunction, *pg_query.RangeTableFunc:
			return reject("table functions are not allowed")
		case *pg_query.FuncCall:
			return checkFunction(n)
		case *pg_query.ResTarget:
			if n.GetName() != "" {
				known[strings.ToLower(n.GetName())] = struct{}{}
			}
		case *pg_query.ColumnRef:
			for _, f := range n.GetFields() {
				if s := f.GetString_(); s != nil {
					refs = append(refs, s.GetSval())
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(columns) == 0 {
		return nil
	}
	for _, ref := range refs {
		if _, ok := known[strings.ToLower(ref)]; !ok {
			return reject(fmt.Sprintf("unknown identifier %s", ref))
		}
	}
	return nil
}

func checkFunction(fc *pg_query.FuncCall) error {
	var parts []string
	for _, n := range fc.GetFuncname() {
		if s := n.GetString_(); s != nil {
			parts = append(parts, strings.ToLower(s.GetSval()))
		}
	}
	if len(parts) == 0 {
		return reject("unnamed function call")
	}
	name := parts[len(parts)-1]
	if len(parts) > 2 || (len(parts) == 2 && parts[0] != "pg_catalog") {
		return reject(fmt.Sprintf("function %s is not allowed", strings.ToUpper(strings.Join(parts, "."))))
	}
	if _, ok := allowedFunctions[name]; !ok {
		return reject(fmt.Sprintf("function %s is not allowed", strings.ToUpper(name)))
	}
	return nil
}

// walkTree visits m and every message reachable from it, depth first, stopping at the
// first error.
func walkTree(m protoreflect.Message, visit func(protoreflect.ProtoMessage) error) error {
	if err := visit(m.Interface()); err != nil {
		return err
	}
	var err error
	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Kind() != protoreflect.MessageKind || fd.IsMap() {
			return true
		}
		if fd.IsList() {
			list := v.List()
			for i := 0; i < list.Len() && err == nil; i++ {
				err = walkTree(list.Get(i).Message(), visit)
			}
		} else {
			err = walkTree(v.Message(), visit)
		}
		return err == nil
	})
	return err
}

func reject(reason string) error {
	return fmt.Errorf("%w: %s", ErrQueryRejected, reason)
}
