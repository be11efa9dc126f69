package query

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

type stubRepository struct {
	rows    []Row
	err     error
	filters []Filter
}

func (s *stubRepository) Find(_ context.Context, filter Filter) ([]Row, error) {
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return nil, s.err
	}
	if filter.Limit < len(s.rows) {
		return s.rows[:filter.Limit], nil
	}
	return s.rows, nil
}

type spyTx struct {
	readOnly int
}

func (s *spyTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	s.readOnly++
	return fn(ctx)
}

type spyMetrics struct {
	outcomes []string
}

func (s *spyMetrics) ObserveQuery(table, outcome string, _ time.Duration) {
	s.outcomes = append(s.outcomes, table+":"+outcome)
}

func employeeRow(id string) Row {
	return Row{
		Columns: []string{"employee_id", "full_name", "hire_date"},
		Values:  []any{id, "Name " + id, "2020-01-02"},
	}
}

func errorText(t *testing.T, payload string) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		t.Fatalf("payload is not JSON: %v (%s)", err, payload)
	}
	if len(body) != 1 {
		t.Fatalf("expected only an error key, got %v", body)
	}
	return body["error"]
}

func TestService_QueryDefaultsLimit(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{rows: []Row{employeeRow("E001")}}
	tx := &spyTx{}
	metrics := &spyMetrics{}

	res, err := NewService(repo, tx, metrics).Query(context.Background(), Input{Table: "employee_master"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.filters) != 1 {
		t.Fatalf("expected 1 repository call, got %d", len(repo.filters))
	}
	f := repo.filters[0]
	if f.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, f.Limit)
	}
	if res.Table != schema.TableEmployeeMaster {
		t.Errorf("expected employee_master, got %v", res.Table)
	}
	if f.EmployeeID != nil || f.Department != nil {
		t.Errorf("expected no filters, got employee_id=%v department=%v", f.EmployeeID, f.Department)
	}
	if tx.readOnly != 1 {
		t.Errorf("expected 1 read-only transaction, got %d", tx.readOnly)
	}
	if want := []string{"employee_master:ok"}; !reflect.DeepEqual(metrics.outcomes, want) {
		t.Errorf("expected outcomes %v, got %v", want, metrics.outcomes)
	}
}

func TestService_QueryPassesFilters(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{}
	res, err := NewService(repo, nil, nil).Query(context.Background(), Input{
		Table:      " remuneration ",
		Limit:      500,
		EmployeeID: " E050 ",
		Department: "Sales",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rows == nil || len(res.Rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", res.Rows)
	}

	f := repo.filters[0]
	if f.Table != schema.TableRemuneration {
		t.Errorf("expected remuneration, got %v", f.Table)
	}
	if f.Limit != 500 {
		t.Errorf("expected limit 500, got %d", f.Limit)
	}
	if f.EmployeeID == nil || *f.EmployeeID != "E050" {
		t.Errorf("expected trimmed employee_id E050, got %v", f.EmployeeID)
	}
	if f.Department == nil || *f.Department != "Sales" {
		t.Errorf("expected department Sales, got %v", f.Department)
	}
}

func TestService_QueryHugeLimitPassesThrough(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{rows: []Row{employeeRow("E001")}}
	res, err := NewService(repo, nil, nil).Query(context.Background(), Input{Table: "employee_master", Limit: 1 << 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.filters[0].Limit; got != 1<<60 {
		t.Fatalf("expected limit to pass through unchanged, got %d", got)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
}

func TestService_QueryRejectsUnknownTable(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"users", "employee_master; DROP TABLE employee_master", "", "EMPLOYEE_MASTER"} {
		repo := &stubRepository{}
		metrics := &spyMetrics{}
		_, err := NewService(repo, nil, metrics).Query(context.Background(), Input{Table: name})
		if !errors.Is(err, ErrTableNotAllowed) {
			t.Fatalf("%q: expected ErrTableNotAllowed, got %v", name, err)
		}
		if !IsInvalidInput(err) {
			t.Errorf("%q: expected invalid input", name)
		}
		if len(repo.filters) != 0 {
			t.Errorf("%q: repository must not be reached", name)
		}
		if want := []string{":rejected"}; !reflect.DeepEqual(metrics.outcomes, want) {
			t.Errorf("%q: expected outcomes %v, got %v", name, want, metrics.outcomes)
		}
		if got, want := Message(err), "Table "+name+" is not allowed"; got != want {
			t.Errorf("expected message %q, got %q", want, got)
		}
	}
}

func TestService_QueryRejectsNegativeLimit(t *testing.T) {
	t.Parallel()

	_, err := NewService(&stubRepository{}, nil, nil).Query(context.Background(), Input{Table: "performance", Limit: -1})
	if !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if !IsInvalidInput(err) {
		t.Fatal("expected invalid input")
	}
}

func TestService_QueryWrapsStoreErrors(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{err: errors.New("relation \"performance\" does not exist")}
	metrics := &spyMetrics{}
	_, err := NewService(repo, nil, metrics).Query(context.Background(), Input{Table: "performance"})
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
	if IsInvalidInput(err) {
		t.Error("store failure must not be invalid input")
	}
	if got, want := Message(err), `Query failed: relation "performance" does not exist`; got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
	if want := []string{"performance:error"}; !reflect.DeepEqual(metrics.outcomes, want) {
		t.Errorf("expected outcomes %v, got %v", want, metrics.outcomes)
	}
}

func TestRow_MarshalJSONKeepsColumnOrder(t *testing.T) {
	t.Parallel()

	row, err := NewRow(
		[]string{"employee_id", "base_salary", "bonus_eligibility", "pay_cycle"},
		[]any{"E001", decimal.RequireFromString("70000.50"), true, nil},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if want := `{"employee_id":"E001","base_salary":"70000.5","bonus_eligibility":true,"pay_cycle":null}`; string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}

	if v, ok := row.Get("bonus_eligibility"); !ok || v != true {
		t.Errorf("expected bonus_eligibility true, got %v (ok=%v)", v, ok)
	}
	if n := len(row.Map()); n != 4 {
		t.Errorf("expected 4 columns, got %d", n)
	}

	if _, err := NewRow([]string{"a"}, nil); err == nil {
		t.Error("expected mismatched columns and values to fail")
	}
}

func TestEncodeRows(t *testing.T) {
	t.Parallel()

	out, err := EncodeRows(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "[]" {
		t.Errorf("expected [], got %s", out)
	}

	out, err = EncodeRows([]Row{employeeRow("E001"), employeeRow("E002")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "[\n  {\n    \"employee_id\": \"E001\"") {
		t.Errorf("unexpected indentation or order: %s", out)
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[1]["employee_id"] != "E002" {
		t.Errorf("unexpected decoded rows: %v", decoded)
	}
}

func TestEncodeError(t *testing.T) {
	t.Parallel()

	if got := errorText(t, EncodeError(&TableNotAllowedError{Table: "secrets"})); got != "Table secrets is not allowed" {
		t.Errorf("unexpected error text %q", got)
	}
	if got := errorText(t, EncodeError(errors.New("boom"))); got != "Query failed: boom" {
		t.Errorf("unexpected error text %q", got)
	}
}
