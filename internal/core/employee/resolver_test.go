package employee

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

func row(id string, manager any, title, department string) schema.Record {
	return schema.Record{
		schema.ColumnEmployeeID: id,
		schema.ColumnManagerID:  manager,
		schema.ColumnJobTitle:   title,
		schema.ColumnDepartment: department,
		"full_name":             "Name " + id,
	}
}

func sampleOrg() []schema.Record {
	return []schema.Record{
		row("E001", nil, TitleCEO, "Executive"),
		row("E002", nil, TitleExecutiveAssistant, "Executive"),
		row("E003", nil, TitleCFO, DepartmentFinance),
		row("E004", nil, "Analyst", DepartmentFinance),
		row("E007", nil, TitleSalesManager, "Sales"),
		row("E008", nil, TitleSalesTeamLeader, "Sales"),
		row("E009", nil, TitleSalesTeamLeader, "Sales"),
		row("E016", nil, TitleOperationsManager, DepartmentOperations),
		row("E017", nil, TitleOperationsStaff, DepartmentOperations),
		row("E020", nil, "Designer", "Marketing"),
		row("E050", nil, TitleSalesRep, "Sales"),
	}
}

func managerOf(t *testing.T, res *Resolution, id string) *string {
	t.Helper()
	for i, a := range res.Assignments {
		if a.EmployeeID == id {
			got, _ := res.Records[i][schema.ColumnManagerID].(string)
			if a.ManagerID == nil {
				if res.Records[i][schema.ColumnManagerID] != nil {
					t.Fatalf("%s: record manager_id should be nil, got %v", id, res.Records[i][schema.ColumnManagerID])
				}
			} else if got != *a.ManagerID {
				t.Fatalf("%s: record and assignment disagree: %q vs %q", id, got, *a.ManagerID)
			}
			return a.ManagerID
		}
	}
	t.Fatalf("employee %s not found", id)
	return nil
}

func TestResolver_DefaultRoster(t *testing.T) {
	t.Parallel()

	res := NewResolver(DefaultRoster()).Resolve(sampleOrg())

	want := map[string]string{
		"E002": "E001",
		"E003": "E001",
		"E004": "E003",
		"E007": "E001",
		"E008": "E007",
		"E009": "E007",
		"E016": "E001",
		"E017": "E016",
		"E050": "E008",
	}
	for id, manager := range want {
		got := managerOf(t, res, id)
		if got == nil || *got != manager {
			t.Errorf("%s: expected manager %s, got %v", id, manager, got)
		}
	}

	for _, root := range []string{"E001", "E020"} {
		if got := managerOf(t, res, root); got != nil {
			t.Errorf("%s: expected no manager, got %s", root, *got)
		}
	}

	if err := res.Verify(); err != nil {
		t.Fatalf("expected a valid forest, got %v", err)
	}
}

func TestResolver_CEOIsRootUnlessExplicitKnownManager(t *testing.T) {
	t.Parallel()

	records := []schema.Record{
		row("E001", "E999", TitleCEO, "Executive"),
		row("E100", "", TitleCEO, "Finance"),
		row("E101", "E001", TitleCEO, "Holdings"),
	}
	res := NewResolver(DefaultRoster()).Resolve(records)
	for _, id := range []string{"E001", "E100"} {
		if got := managerOf(t, res, id); got != nil {
			t.Fatalf("%s: CEO must be a root, got %s", id, *got)
		}
	}

	// 明示的な既知の上長は CEO 規則より優先される。
	got := managerOf(t, res, "E101")
	if got == nil || *got != "E001" {
		t.Fatalf("E101: explicit known manager must win over ceo rule, got %v", got)
	}
	for _, a := range res.Assignments {
		if a.EmployeeID == "E101" && a.Rule != "explicit" {
			t.Fatalf("E101: expected rule explicit, got %s", a.Rule)
		}
	}
	if err := res.Verify(); err != nil {
		t.Fatalf("expected a valid forest, got %v", err)
	}
}

func TestResolver_ExplicitKnownManagerWins(t *testing.T) {
	t.Parallel()

	records := append(sampleOrg(), row("E002X", "E001", "Analyst", DepartmentFinance))
	res := NewResolver(DefaultRoster()).Resolve(records)

	got := managerOf(t, res, "E002X")
	if got == nil || *got != "E001" {
		t.Fatalf("explicit known manager must be kept, got %v", got)
	}

	// 既知でない明示値は無視され、部署規則が適用される。
	records = append(sampleOrg(), row("E005", "E404", "Analyst", DepartmentFinance))
	res = NewResolver(DefaultRoster()).Resolve(records)
	got = managerOf(t, res, "E005")
	if got == nil || *got != "E003" {
		t.Fatalf("unknown explicit manager must fall through to finance rule, got %v", got)
	}
}

func TestResolver_ExplicitManagerTrimmed(t *testing.T) {
	t.Parallel()

	records := append(sampleOrg(), row("E060", "  E009 ", TitleSalesRep, "Sales"))
	res := NewResolver(DefaultRoster()).Resolve(records)
	got := managerOf(t, res, "E060")
	if got == nil || *got != "E009" {
		t.Fatalf("expected trimmed explicit manager E009, got %v", got)
	}
}

func TestResolver_ExecutiveAssistantAndCFOReportToCEOUnlessExplicit(t *testing.T) {
	t.Parallel()

	records := append(sampleOrg(), row("E070", "E016", TitleExecutiveAssistant, "Operations"))
	res := NewResolver(DefaultRoster()).Resolve(records)

	if got := managerOf(t, res, "E002"); got == nil || *got != "E001" {
		t.Fatalf("executive assistant must report to CEO, got %v", got)
	}
	if got := managerOf(t, res, "E003"); got == nil || *got != "E001" {
		t.Fatalf("CFO must report to CEO, got %v", got)
	}
	if got := managerOf(t, res, "E070"); got == nil || *got != "E016" {
		t.Fatalf("explicit known manager must take precedence, got %v", got)
	}
}

func TestResolver_FinanceStaffReportToCFO(t *testing.T) {
	t.Parallel()

	records := append(sampleOrg(),
		row("E080", nil, TitleSalesRep, DepartmentFinance),
		row("E081", nil, "Payroll Officer", DepartmentFinance),
	)
	res := NewResolver(DefaultRoster()).Resolve(records)
	for _, id := range []string{"E004", "E080", "E081"} {
		if got := managerOf(t, res, id); got == nil || *got != "E003" {
			t.Fatalf("%s: finance staff must report to CFO, got %v", id, got)
		}
	}
}

func TestResolver_OperationsStaffOutsideOperationsIsRoot(t *testing.T) {
	t.Parallel()

	records := append(sampleOrg(), row("E090", nil, TitleOperationsStaff, "Warehouse"))
	res := NewResolver(DefaultRoster()).Resolve(records)
	if got := managerOf(t, res, "E090"); got != nil {
		t.Fatalf("expected unresolved root, got %s", *got)
	}
}

func TestResolver_RulePrecedenceOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		"explicit",
		"ceo",
		"executive_assistant",
		"cfo",
		"finance",
		"sales_manager",
		"sales_team_leader",
		"sales_rep",
		"operations_manager",
		"operations_staff",
		"unresolved",
	}
	got := NewResolver(DefaultRoster()).Rules()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected rule order:\nwant %v\ngot  %v", want, got)
	}
}

func TestResolver_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := sampleOrg()
	NewResolver(DefaultRoster()).Resolve(records)
	for _, rec := range records {
		if rec[schema.ColumnManagerID] != nil {
			t.Fatalf("input record mutated: %v", rec)
		}
	}
}

func TestResolver_PreservesOrder(t *testing.T) {
	t.Parallel()

	records := sampleOrg()
	res := NewResolver(DefaultRoster()).Resolve(records)
	for i, rec := range records {
		if res.Records[i][schema.ColumnEmployeeID] != rec[schema.ColumnEmployeeID] {
			t.Fatalf("order changed at %d", i)
		}
		if res.Records[i]["full_name"] != rec["full_name"] {
			t.Fatalf("non-manager fields must be carried over")
		}
	}
}

func TestResolution_VerifyDangling(t *testing.T) {
	t.Parallel()

	// E008 が欠けているため、営業担当の参照先が存在しない。
	records := []schema.Record{
		row("E001", nil, TitleCEO, "Executive"),
		row("E050", nil, TitleSalesRep, "Sales"),
	}
	res := NewResolver(DefaultRoster()).Resolve(records)

	err := res.Verify()
	if !errors.Is(err, ErrDanglingManager) {
		t.Fatalf("expected ErrDanglingManager, got %v", err)
	}
	if !strings.Contains(err.Error(), "E050 -> E008") {
		t.Fatalf("error should name the dangling edge, got %v", err)
	}
	if dangling := res.Dangling(); len(dangling) != 1 || dangling[0].Rule != "sales_rep" {
		t.Fatalf("unexpected dangling list: %+v", dangling)
	}
}

func TestResolution_VerifyCycle(t *testing.T) {
	t.Parallel()

	records := []schema.Record{
		row("E001", nil, TitleCEO, "Executive"),
		row("E030", "E031", "Analyst", "Marketing"),
		row("E031", "E030", "Analyst", "Marketing"),
		row("E040", "E040", "Analyst", "Marketing"),
	}
	res := NewResolver(DefaultRoster()).Resolve(records)

	err := res.Verify()
	if !errors.Is(err, ErrManagerCycle) {
		t.Fatalf("expected ErrManagerCycle, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "E030 -> E031 -> E030") {
		t.Fatalf("expected two-node cycle in %q", msg)
	}
	if !strings.Contains(msg, "E040 -> E040") {
		t.Fatalf("expected self cycle in %q", msg)
	}
	if errors.Is(err, ErrDanglingManager) {
		t.Fatalf("no dangling reference expected")
	}
}

func TestResolver_CustomRoster(t *testing.T) {
	t.Parallel()

	roster := Roster{CEO: "C1", CFO: "C2", SalesManager: "S1", SalesTeamLeader: "S2", OperationsManager: "O1"}
	records := []schema.Record{
		row("C1", nil, TitleCEO, ""),
		row("S2", nil, TitleSalesTeamLeader, "Sales"),
		row("S1", nil, TitleSalesManager, "Sales"),
		row("R1", nil, TitleSalesRep, "Sales"),
	}
	res := NewResolver(roster).Resolve(records)
	if got := managerOf(t, res, "R1"); got == nil || *got != "S2" {
		t.Fatalf("expected S2, got %v", got)
	}
	if err := res.Verify(); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
	if ids := roster.IDs(); len(ids) != 5 {
		t.Fatalf("expected 5 roster ids, got %v", ids)
	}
}
