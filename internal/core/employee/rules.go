package employee

// Roster は規則で参照する固定の上長 ID です。
type Roster struct {
	CEO               string
	CFO               string
	SalesManager      string
	SalesTeamLeader   string
	OperationsManager string
}

// DefaultRoster は組織表の既定値です。
func DefaultRoster() Roster {
	return Roster{
		CEO:               "E001",
		CFO:               "E003",
		SalesManager:      "E007",
		SalesTeamLeader:   "E008",
		OperationsManager: "E016",
	}
}

// IDs は設定されている固定 ID を返します。
func (r Roster) IDs() []string {
	ids := make([]string, 0, 5)
	for _, id := range []string{r.CEO, r.CFO, r.SalesManager, r.SalesTeamLeader, r.OperationsManager} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

const (
	TitleCEO                = "CEO"
	TitleExecutiveAssistant = "Executive Assistant"
	TitleCFO                = "Chief Financial Officer"
	TitleSalesManager       = "Sales Manager"
	TitleSalesTeamLeader    = "Sales Team Leader"
	TitleSalesRep           = "Sales Rep"
	TitleOperationsManager  = "Operations Manager"
	TitleOperationsStaff    = "Operations Staff"
	DepartmentFinance       = "Finance"
	DepartmentOperations    = "Operations"
)

// Candidate は規則評価に使う 1 社員分の入力です。
type Candidate struct {
	EmployeeID string
	ManagerID  string
	JobTitle   string
	Department string
	// ManagerKnown は ManagerID が同じバッチ内の社員 ID と一致したかを表します。
	ManagerKnown bool
}

// Rule は上長決定規則です。When が真になった最初の規則の Assign が採用されます。
// Assign が nil を返した場合、上長なし（組織の根）を表します。
type Rule struct {
	Name   string
	When   func(Candidate) bool
	Assign func(Candidate) *string
}

func fixed(id string) func(Candidate) *string {
	return func(Candidate) *string {
		v := id
		return &v
	}
}

func none(Candidate) *string { return nil }

func titleIs(title string) func(Candidate) bool {
	return func(c Candidate) bool { return c.JobTitle == title }
}

// DefaultRules は優先順に並んだ上長決定規則を返します。
func DefaultRules(r Roster) []Rule {
	return []Rule{
		{
			Name: "explicit",
			When: func(c Candidate) bool { return c.ManagerID != "" && c.ManagerKnown },
			Assign: func(c Candidate) *string {
				v := c.ManagerID
				return &v
			},
		},
		{Name: "ceo", When: titleIs(TitleCEO), Assign: none},
		{Name: "executive_assistant", When: titleIs(TitleExecutiveAssistant), Assign: fixed(r.CEO)},
		{Name: "cfo", When: titleIs(TitleCFO), Assign: fixed(r.CEO)},
		{
			Name:   "finance",
			When:   func(c Candidate) bool { return c.Department == DepartmentFinance && c.JobTitle != TitleCFO },
			Assign: fixed(r.CFO),
		},
		{Name: "sales_manager", When: titleIs(TitleSalesManager), Assign: fixed(r.CEO)},
		{Name: "sales_team_leader", When: titleIs(TitleSalesTeamLeader), Assign: fixed(r.SalesManager)},
		{Name: "sales_rep", When: titleIs(TitleSalesRep), Assign: fixed(r.SalesTeamLeader)},
		{Name: "operations_manager", When: titleIs(TitleOperationsManager), Assign: fixed(r.CEO)},
		{
			Name:   "operations_staff",
			When:   func(c Candidate) bool { return c.Department == DepartmentOperations && c.JobTitle == TitleOperationsStaff },
			Assign: fixed(r.OperationsManager),
		},
		{Name: "unresolved", When: func(Candidate) bool { return true }, Assign: none},
	}
}
