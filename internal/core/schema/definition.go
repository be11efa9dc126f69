package schema

// Kind は列の型分類です。正規化時の型変換規則を決めます。
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindNumeric
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindNumeric:
		return "numeric"
	case KindBool:
		return "boolean"
	default:
		return "text"
	}
}

// Column は列定義です。Label は取り込み元ファイルの見出しです。
type Column struct {
	Name    string
	Label   string
	Aliases []string
	Kind    Kind
}

// Definition はテーブル定義です。
type Definition struct {
	Table      Table
	SourceName string
	Columns    []Column
	// PrimaryKey は空の場合、主キーを持たないことを表します。
	PrimaryKey string
	// References は社員マスタへの参照列です。
	References []string
}

// Record は列名（または見出し）をキーとする 1 行分の値です。
type Record map[string]any

// Clone はレコードの浅いコピーを返します。
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ColumnNames は定義順の列名一覧を返します。
func (d Definition) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Column は列名から列定義を取得します。
func (d Definition) Column(name string) (Column, bool) {
	for _, col := range d.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// HasColumn は列の有無を返します。
func (d Definition) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Lookup は Table の定義を返します。
func Lookup(t Table) (Definition, bool) {
	def, ok := definitions[t]
	return def, ok
}

// MustLookup は Table の定義を返し、未定義の場合は panic します。
func MustLookup(t Table) Definition {
	def, ok := definitions[t]
	if !ok {
		panic("schema: no definition for " + t.String())
	}
	return def
}

const (
	ColumnEmployeeID = "employee_id"
	ColumnManagerID  = "manager_id"
	ColumnJobTitle   = "job_title"
	ColumnDepartment = "department"
)

var definitions = map[Table]Definition{
	TableEmployeeMaster: {
		Table:      TableEmployeeMaster,
		SourceName: "Employee Master",
		PrimaryKey: ColumnEmployeeID,
		References: []string{ColumnManagerID},
		Columns: []Column{
			{Name: ColumnEmployeeID, Label: "Employee ID"},
			{Name: "full_name", Label: "Full Name"},
			{Name: "date_of_birth", Label: "Date of Birth", Kind: KindDate},
			{Name: "gender", Label: "Gender"},
			{Name: "contact_details", Label: "Contact Details"},
			{Name: "address", Label: "Address"},
			{Name: "emergency_contact", Label: "Emergency Contact"},
			{Name: "employment_status", Label: "Employment Status"},
			{Name: "hire_date", Label: "Hire Date", Kind: KindDate},
			{Name: "termination_date", Label: "Termination Date", Kind: KindDate},
			{Name: ColumnJobTitle, Label: "Job Title"},
			{Name: ColumnDepartment, Label: "Department"},
			{Name: "office_location", Label: "Office Location"},
			{Name: "region_state", Label: "Region/State"},
			{Name: "country", Label: "Country"},
			{Name: ColumnManagerID, Label: "Manager", Aliases: []string{"Manager ID"}},
			{Name: "award_agreement", Label: "Award/Agreement"},
			{Name: "employment_type", Label: "Employment Type"},
		},
	},
	TableRemuneration: {
		Table:      TableRemuneration,
		SourceName: "Remuneration",
		References: []string{ColumnEmployeeID},
		Columns: []Column{
			{Name: ColumnEmployeeID, Label: "Employee ID"},
			{Name: "base_salary", Label: "Base Salary", Kind: KindNumeric},
			{Name: "award_classification_level", Label: "Award/Classification Level"},
			{Name: "allowances", Label: "Allowances", Kind: KindNumeric},
			{Name: "commission", Label: "Commission", Kind: KindNumeric},
			{Name: "commission_percent", Label: "Commission %", Kind: KindNumeric},
			{Name: "commission_earned", Label: "Commision Earned", Aliases: []string{"Commission Earned"}, Kind: KindNumeric},
			{Name: "overtime_rate", Label: "Overtime Rate", Kind: KindNumeric},
			{Name: "superannuation_percent", Label: "Superannuation %", Kind: KindNumeric},
			{Name: "bonus_eligibility", Label: "Bonus Eligibility", Kind: KindBool},
			{Name: "pay_cycle", Label: "Pay Cycle"},
			{Name: "salary", Label: "Salary", Kind: KindNumeric},
			{Name: "commission_dollar", Label: "Commission $", Kind: KindNumeric},
			{Name: "total_package_value", Label: "Total Package Value", Kind: KindNumeric},
		},
	},
	TablePositionDetails: {
		Table:      TablePositionDetails,
		SourceName: "Position Details",
		References: []string{ColumnEmployeeID},
		Columns: []Column{
			{Name: ColumnEmployeeID, Label: "Employee ID"},
			{Name: "position_title", Label: "Position Title"},
			{Name: "position_level", Label: "Position Level"},
			{Name: "skills_required", Label: "Skills Required"},
			{Name: "qualifications", Label: "Qualifications"},
			{Name: "qualification_date", Label: "Qualification Date", Kind: KindDate},
			{Name: "expiry_date", Label: "Expiry Date", Kind: KindDate},
			{Name: "licenses_permits", Label: "Licenses/Permits"},
			{Name: "competency_status", Label: "Competency Status"},
		},
	},
	TablePerformance: {
		Table:      TablePerformance,
		SourceName: "Performance",
		References: []string{ColumnEmployeeID},
		Columns: []Column{
			{Name: ColumnEmployeeID, Label: "Employee ID"},
			{Name: "review_date", Label: "Review Date", Kind: KindDate},
			{Name: "performance_rating", Label: "Performance Rating"},
			{Name: "potential_rating", Label: "Potential Rating"},
			{Name: "time_in_role", Label: "Time in Role"},
			{Name: "goals_objectives", Label: "Goals/Objectives"},
			{Name: "achievement_status", Label: "Achievement Status"},
			{Name: "development_plan_status", Label: "Development Plan Status"},
			{Name: "last_promotion_date", Label: "Last Promotion Date", Kind: KindDate},
			{Name: "next_review_date", Label: "Next Review Date", Kind: KindDate},
		},
	},
}
