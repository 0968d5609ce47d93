package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmployeesCyclesFirstName(t *testing.T) {
	var employees []*Employee
	for e := range GenerateEmployees(1002) {
		employees = append(employees, e)
	}

	require.Len(t, employees, 1002)
	assert.Equal(t, "John0", employees[0].FirstName)
	assert.Equal(t, "John999", employees[999].FirstName)
	assert.Equal(t, "John0", employees[1000].FirstName)
	assert.Equal(t, "John1", employees[1001].FirstName)
	for _, e := range employees {
		assert.Empty(t, e.ID)
		assert.Equal(t, "Doe", e.LastName)
		assert.Equal(t, "Software Developer", e.Title)
	}
}

func TestGenerateEmployeesStopsEarly(t *testing.T) {
	n := 0
	for range GenerateEmployees(100) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestFieldMatches(t *testing.T) {
	first := FieldFirstName
	last := FieldLastName

	assert.True(t, first.Matches(&Employee{FirstName: "John0"}))
	assert.True(t, first.Matches(&Employee{FirstName: "John10"}))
	assert.False(t, first.Matches(&Employee{FirstName: "John1"}))
	assert.False(t, first.Matches(&Employee{FirstName: "John01"}))
	assert.False(t, first.Matches(&Employee{FirstName: ""}))
	assert.False(t, first.Matches(&Employee{FirstName: "John", LastName: "Doe0"}))

	assert.True(t, last.Matches(&Employee{FirstName: "John1", LastName: "Doe0"}))
	assert.False(t, last.Matches(&Employee{FirstName: "John0", LastName: "Doe"}))
	// 'O' is not '0'
	assert.False(t, last.Matches(&Employee{LastName: "DOO"}))
}

func TestParseField(t *testing.T) {
	f, err := ParseField("")
	require.NoError(t, err)
	assert.Equal(t, FieldFirstName, f)

	f, err = ParseField("last")
	require.NoError(t, err)
	assert.Equal(t, FieldLastName, f)

	_, err = ParseField("Title")
	assert.ErrorIs(t, err, ErrUnknownField)
}
