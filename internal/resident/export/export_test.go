package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"safenest/internal/resident/models"
	id "safenest/pkg/domain"
)

func TestWorkbook(t *testing.T) {
	moveIn, err := id.ParseDate("2024-09-15")
	require.NoError(t, err)
	exit := moveIn.AddMonths(6)
	ages := "5, 3, 1"
	email := "lisa.a@email.com"

	data, err := Workbook([]*models.Resident{{
		ID:               id.NewResidentID(),
		Name:             "Lisa Anderson",
		Email:            &email,
		ChildrenCount:    3,
		ChildrenAges:     &ages,
		MoveInDate:       moveIn,
		ExpectedExitDate: &exit,
		CaseManager:      "Robin Mitchell",
		Status:           models.StatusActive,
		CreatedAt:        time.Now(),
	}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{
		"Lisa Anderson", "lisa.a@email.com", "", "3", "5, 3, 1", "2024-09-15", "2025-03-15", "Robin Mitchell", "Active",
	}, rows[1])
}

func TestWorkbookEmptyHasHeaderOnly(t *testing.T) {
	data, err := Workbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
