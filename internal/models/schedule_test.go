package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidHHMM(t *testing.T) {
	valid := []string{"00:00", "08:05", "13:30", "23:59"}
	for _, v := range valid {
		assert.True(t, ValidHHMM(v), v)
	}

	invalid := []string{"8:00", "24:00", "12:60", "12:5", "noon", "12-30", ""}
	for _, v := range invalid {
		assert.False(t, ValidHHMM(v), v)
	}
}

func TestTimeRangeValidate(t *testing.T) {
	assert.NoError(t, TimeRange{Start: "09:00", End: "10:00"}.Validate())
	assert.Error(t, TimeRange{Start: "10:00", End: "10:00"}.Validate())
	assert.Error(t, TimeRange{Start: "10:00", End: "09:00"}.Validate())
	assert.Error(t, TimeRange{Start: "9:00", End: "10:00"}.Validate())
}

func TestTimeRangeOrdering(t *testing.T) {
	early := TimeRange{Start: "08:00", End: "09:00"}
	late := TimeRange{Start: "14:00", End: "15:00"}

	assert.True(t, early.Less(late))
	assert.False(t, late.Less(early))
	assert.True(t, early.Equal(TimeRange{Start: "08:00", End: "09:00"}))
	assert.False(t, early.Equal(TimeRange{Start: "08:00", End: "09:30"}))
}
