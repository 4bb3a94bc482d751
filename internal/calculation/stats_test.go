package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = dec(v)
	}
	return out
}

func TestStats(t *testing.T) {
	values := decs("2", "4", "4", "4", "5", "5", "7", "9")

	assert.True(t, decEqual("5", Mean(values)))
	assert.True(t, decEqual("40", Sum(values)))
	assert.True(t, decEqual("9", Max(values)))
	assert.True(t, decEqual("2", Min(values)))
	assert.True(t, decEqual("4.5", Median(values)))
	assert.True(t, decEqual("2", StdDev(values, 0)), "population std")
	assert.True(t, StdDev(values, 1).GreaterThan(dec("2")), "sample std is larger")

	cv, ok := CoefficientOfVariation(values, 0)
	assert.True(t, ok)
	assert.True(t, decEqual("0.4", cv))

	_, ok = CoefficientOfVariation(decs("0", "0"), 0)
	assert.False(t, ok, "CV is undefined for a zero mean")

	assert.True(t, StdDev(decs("3"), 1).IsZero())
	assert.True(t, Mean(nil).IsZero())
	assert.True(t, decEqual("3", Median(decs("5", "1", "3"))))
}

func TestPercentileInt(t *testing.T) {
	ages := []int{25, 28, 31, 35, 40, 44, 48, 52, 56, 60}

	tests := []struct {
		p    float64
		want int
	}{
		{0, 25},
		{50, 42},
		{100, 60},
		{25, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentileInt(ages, tt.p), "p%.0f", tt.p)
	}
	assert.Equal(t, 0, PercentileInt(nil, 50))
}

func TestPercentOf(t *testing.T) {
	assert.True(t, decEqual("66.7", PercentOf(2, 3)))
	assert.True(t, PercentOf(1, 0).IsZero())
}
