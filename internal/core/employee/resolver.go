package employee

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

// Resolver は社員マスタの manager_id を規則表に従って確定します。
type Resolver struct {
	rules []Rule
}

// NewResolver は Roster から既定の規則表を組み立てます。
func NewResolver(roster Roster) *Resolver {
	return &Resolver{rules: DefaultRules(roster)}
}

// NewResolverWithRules は任意の規則表で Resolver を生成します。
func NewResolverWithRules(rules []Rule) *Resolver {
	return &Resolver{rules: rules}
}

// Rules は評価順の規則名を返します。
func (r *Resolver) Rules() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name)
	}
	return names
}

// Assignment は 1 社員分の決定結果です。
type Assignment struct {
	EmployeeID string
	ManagerID  *string
	Rule       string
}

// Resolution は Resolve の結果です。Records は入力と同じ順序のコピーです。
type Resolution struct {
	Records     []schema.Record
	Assignments []Assignment
	known       map[string]struct{}
}

// Resolve は入力順を保ったまま各行の manager_id を確定します。入力は変更しません。
func (r *Resolver) Resolve(records []schema.Record) *Resolution {
	known := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if id := stringField(rec, schema.ColumnEmployeeID); id != "" {
			known[id] = struct{}{}
		}
	}

	res := &Resolution{
		Records:     make([]schema.Record, 0, len(records)),
		Assignments: make([]Assignment, 0, len(records)),
		known:       known,
	}

	for _, rec := range records {
		c := Candidate{
			EmployeeID: stringField(rec, schema.ColumnEmployeeID),
			ManagerID:  stringField(rec, schema.ColumnManagerID),
			JobTitle:   stringField(rec, schema.ColumnJobTitle),
			Department: stringField(rec, schema.ColumnDepartment),
		}
		_, c.ManagerKnown = known[c.ManagerID]

		assignment := Assignment{EmployeeID: c.EmployeeID}
		for _, rule := range r.rules {
			if rule.When(c) {
				assignment.ManagerID = rule.Assign(c)
				assignment.Rule = rule.Name
				break
			}
		}

		out := rec.Clone()
		if out == nil {
			out = schema.Record{}
		}
		if assignment.ManagerID == nil {
			out[schema.ColumnManagerID] = nil
		} else {
			out[schema.ColumnManagerID] = *assignment.ManagerID
		}

		res.Records = append(res.Records, out)
		res.Assignments = append(res.Assignments, assignment)
	}

	return res
}

// Verify は決定結果が森（循環なし・参照先が同一バッチに存在）であることを検証します。
// 違反はすべて errors.Join でまとめて返します。
func (res *Resolution) Verify() error {
	var errs []error

	parent := make(map[string]string, len(res.Assignments))
	for _, a := range res.Assignments {
		if a.ManagerID == nil {
			continue
		}
		if _, ok := res.known[*a.ManagerID]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s -> %s (rule %s)", ErrDanglingManager, a.EmployeeID, *a.ManagerID, a.Rule))
			continue
		}
		if a.EmployeeID != "" {
			parent[a.EmployeeID] = *a.ManagerID
		}
	}

	for _, cycle := range findCycles(parent) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrManagerCycle, strings.Join(cycle, " -> ")))
	}

	return joinErrors(errs)
}

// Dangling は同一バッチに存在しない上長を参照している割り当てを返します。
func (res *Resolution) Dangling() []Assignment {
	var out []Assignment
	for _, a := range res.Assignments {
		if a.ManagerID == nil {
			continue
		}
		if _, ok := res.known[*a.ManagerID]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// findCycles は親参照グラフ上の循環を、発見順に社員 ID 列として返します。
func findCycles(parent map[string]string) [][]string {
	const (
		unvisited = iota
		inPath
		done
	)

	state := make(map[string]int, len(parent))
	var cycles [][]string

	ids := sortedKeys(parent)
	for _, start := range ids {
		if state[start] != unvisited {
			continue
		}
		var path []string
		node := start
		for {
			if state[node] == done {
				break
			}
			if state[node] == inPath {
				idx := indexOf(path, node)
				cycle := append(append([]string{}, path[idx:]...), node)
				cycles = append(cycles, cycle)
				break
			}
			state[node] = inPath
			path = append(path, node)
			next, ok := parent[node]
			if !ok {
				break
			}
			node = next
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return cycles
}

func stringField(rec schema.Record, key string) string {
	if rec == nil {
		return ""
	}
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
