package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"STARBUCKS #1234", "starbucks #1234"},
		{"  Starbucks   #1234  ", "starbucks #1234"},
		{"starbucks\t#1234", "starbucks #1234"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDescription(tt.in), "input %q", tt.in)
	}
}

func TestParseStatementDate(t *testing.T) {
	want := time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-07-04", "07/04/2024", "7/4/2024", "2024/07/04", "07-04-2024", "Jul 4, 2024", "04 Jul 2024"} {
		got, err := ParseStatementDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(want), "input %q got %v", raw, got)
	}

	_, err := ParseStatementDate("")
	assert.Error(t, err)
	_, err = ParseStatementDate("yesterday")
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 7, 4, 23, 59, 58, 123, time.FixedZone("X", 3600))
	got := DateOnly(in)
	assert.Equal(t, time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC), got)
}
