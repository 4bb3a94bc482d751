package census

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "dollar sign and comma", input: "$5,920.23", want: "5920.23", wantOK: true},
		{name: "whole dollars", input: "$4500", want: "4500", wantOK: true},
		{name: "plain number", input: "4500", want: "4500", wantOK: true},
		{name: "padded", input: "  4500.50 ", want: "4500.5", wantOK: true},
		{name: "accounting negative", input: "($12.00)", want: "-12", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "nan token", input: "NaN", wantOK: false},
		{name: "none token", input: "None", wantOK: false},
		{name: "null token", input: "null", wantOK: false},
		{name: "garbage", input: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCurrency(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestParsePositiveCurrency(t *testing.T) {
	assert.Nil(t, ParsePositiveCurrency("0"), "Zero income should be treated as missing")
	assert.Nil(t, ParsePositiveCurrency("-100"))
	assert.Nil(t, ParsePositiveCurrency(""))

	got := ParsePositiveCurrency("$3,000")
	if assert.NotNil(t, got) {
		assert.True(t, got.Equal(decimal.NewFromInt(3000)))
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"35", 35, true},
		{"34.0", 34, true},
		{" 64 ", 64, true},
		{"", 0, false},
		{"nan", 0, false},
		{"-3", 0, false},
		{"old", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAge(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRatingArea(t *testing.T) {
	n, ok := ParseRatingArea("Rating Area 7")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = ParseRatingArea("3.0")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}
