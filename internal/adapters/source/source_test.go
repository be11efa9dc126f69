package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ogurasousui/hr-datahub/internal/core/ingest"
	"github.com/ogurasousui/hr-datahub/internal/core/normalize"
	"github.com/ogurasousui/hr-datahub/internal/core/schema"
)

func TestDirectory_LocateCSV(t *testing.T) {
	t.Parallel()

	dir, err := NewDirectory("testdata")
	require.NoError(t, err)

	path, err := dir.Locate("Employee Master")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "Employee Master.csv"), path)

	_, err = dir.Locate("Performance")
	assert.ErrorIs(t, err, ingest.ErrSourceNotFound)
}

func TestDirectory_RejectsMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := NewDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	_, err = NewDirectory("  ")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.csv")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0o600))
	_, err = NewDirectory(file)
	assert.Error(t, err)
}

func TestReadCSV_StripsBOMAndSkipsBlankRows(t *testing.T) {
	t.Parallel()

	records, err := ReadCSV(filepath.Join("testdata", "Employee Master.csv"))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "E001", first["Employee ID"], "BOM must not leak into the first header")
	assert.Equal(t, "3/15/2015", first["Hire Date"])
	assert.Equal(t, "Ngo, Kim", records[1]["Full Name"])

	short := records[2]
	assert.Equal(t, "Short Row", short["Full Name"])
	assert.Equal(t, "", short["Department"])
}

func TestReadCSV_FeedsNormalizer(t *testing.T) {
	t.Parallel()

	records, err := ReadCSV(filepath.Join("testdata", "Remuneration.csv"))
	require.NoError(t, err)

	rec, err := normalize.New().Normalize(schema.TableRemuneration, records[0])
	require.NoError(t, err)
	assert.Equal(t, "70000", rec["base_salary"].(interface{ String() string }).String())
	assert.Equal(t, true, rec["bonus_eligibility"])
}

func TestDecodeCSV_MissingHeader(t *testing.T) {
	t.Parallel()

	_, err := decodeCSV(strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header")
}

func TestDirectory_ReadXLSX(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"Employee ID", "Review Date", "Performance Rating"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"E050", "2024-03-01", "Exceeds"}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]any{"E051"}))
	require.NoError(t, book.SaveAs(filepath.Join(root, "Performance.xlsx")))
	require.NoError(t, book.Close())

	dir, err := NewDirectory(root)
	require.NoError(t, err)

	path, err := dir.Locate("Performance")
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	records, err := dir.Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Exceeds", records[0]["Performance Rating"])
	assert.Equal(t, "", records[1]["Review Date"])
}

func TestDirectory_PrefersCSVOverXLSX(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Performance.csv"), []byte("Employee ID\nE1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Performance.xlsx"), []byte("not a workbook"), 0o600))

	dir, err := NewDirectory(root)
	require.NoError(t, err)
	path, err := dir.Locate("Performance")
	require.NoError(t, err)
	assert.Equal(t, ".csv", filepath.Ext(path))
}

func TestDirectory_ReadUnsupported(t *testing.T) {
	t.Parallel()

	dir, err := NewDirectory(t.TempDir())
	require.NoError(t, err)
	_, err = dir.Read(context.Background(), "people.txt")
	assert.ErrorContains(t, err, "unsupported file type")
}
