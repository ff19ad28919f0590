package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectionPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    SelectionPolicy
		wantErr bool
	}{
		{"", SelectLargest, false},
		{"largest", SelectLargest, false},
		{"First", SelectFirst, false},
		{" last ", SelectLast, false},
		{"biggest", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSelectionPolicy(tt.in)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown selection policy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResult_Select(t *testing.T) {
	res := &Result{Plates: []Plate{
		{Index: 0, Area: 1500},
		{Index: 1, Area: 4000},
		{Index: 2, Area: 2500},
	}}

	tests := []struct {
		policy SelectionPolicy
		want   int
	}{
		{SelectLargest, 1},
		{"", 1},
		{SelectFirst, 0},
		{SelectLast, 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			p, err := res.Select(tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Index)
		})
	}

	_, err := res.Select("median")
	assert.Error(t, err)
}

func TestResult_SelectLargestTieGoesToEarliest(t *testing.T) {
	res := &Result{Plates: []Plate{
		{Index: 0, Area: 1200},
		{Index: 1, Area: 3000},
		{Index: 2, Area: 3000},
	}}

	p, err := res.Select(SelectLargest)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
}

func TestResult_SelectEmpty(t *testing.T) {
	for _, policy := range []SelectionPolicy{SelectLargest, SelectFirst, SelectLast} {
		_, err := (&Result{Plates: []Plate{}}).Select(policy)
		assert.ErrorIs(t, err, ErrNoPlateDetected)
	}
}
