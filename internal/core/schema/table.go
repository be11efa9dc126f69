package schema

import (
	"fmt"
	"strings"
)

// Table は取り込み・参照が許可されたテーブルの列挙です。
// ここに定義されていない名前はクエリにも取り込みにも使用できません。
type Table int

const (
	TableEmployeeMaster Table = iota + 1
	TableRemuneration
	TablePositionDetails
	TablePerformance
)

var tableNames = map[Table]string{
	TableEmployeeMaster:  "employee_master",
	TableRemuneration:    "remuneration",
	TablePositionDetails: "position_details",
	TablePerformance:     "performance",
}

// LoadOrder は取り込み順序です。社員マスタは参照元となるため必ず先頭です。
var LoadOrder = []Table{
	TableEmployeeMaster,
	TableRemuneration,
	TablePositionDetails,
	TablePerformance,
}

// String はテーブルの物理名を返します。
func (t Table) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// Valid は列挙に含まれる値かどうかを返します。
func (t Table) Valid() bool {
	_, ok := tableNames[t]
	return ok
}

// ParseTable は物理名から Table を解決します。
func ParseTable(name string) (Table, error) {
	trimmed := strings.TrimSpace(name)
	for table, tableName := range tableNames {
		if tableName == trimmed {
			return table, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownTable)
}

// Names は許可されたテーブル名を取り込み順で返します。
func Names() []string {
	names := make([]string, 0, len(LoadOrder))
	for _, table := range LoadOrder {
		names = append(names, table.String())
	}
	return names
}
