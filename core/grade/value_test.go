package grade

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/juror/core"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{7.005, 7.01},
		{7.004, 7},
		{8.125, 8.13},
		{7.999999999, 8},
		{-2.345, -2.35},
		{10, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%v)", tt.in)
	}
	assert.True(t, math.IsNaN(Normalize(math.NaN())))
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{name: "lower bound", value: 1},
		{name: "upper bound", value: 10},
		{name: "two decimals", value: 7.25},
		{name: "below range", value: 0.99, wantErr: true},
		{name: "above range", value: 10.01, wantErr: true},
		{name: "three decimals", value: 7.123, wantErr: true},
		{name: "NaN", value: math.NaN(), wantErr: true},
		{name: "infinite", value: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(tt.value)
			if tt.wantErr {
				assert.True(t, errors.Is(err, core.ErrInvalidValue))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizedValueRevalidates(t *testing.T) {
	v, err := ParseValue(" 7.005 ")
	assert.NoError(t, err)
	v = Normalize(v)
	assert.Equal(t, 7.01, v)
	assert.NoError(t, ValidateValue(v))
}

func TestParseValue(t *testing.T) {
	_, err := ParseValue("seven")
	assert.True(t, errors.Is(err, core.ErrInvalidValue))
	_, err = ParseValue("")
	assert.True(t, errors.Is(err, core.ErrInvalidValue))

	v, err := ParseValue("8.5")
	assert.NoError(t, err)
	assert.Equal(t, 8.5, v)
}

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{name: "no grade"},
		{name: "one grade", values: []float64{5}},
		{name: "two grades", values: []float64{5, 9}},
		{name: "three grades", values: []float64{4, 9, 5}, want: 5, ok: true},
		{name: "four grades", values: []float64{6, 7, 10, 2}, want: 6.5, ok: true},
		{name: "ties drop one instance each", values: []float64{3, 3, 3, 9, 9}, want: 5, ok: true},
		{name: "rounded", values: []float64{1, 7.33, 7.34, 7.34, 10}, want: 7.34, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FinalScore(tt.values)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFinalScore_keepsInput(t *testing.T) {
	values := []float64{9, 1, 5}
	_, _ = FinalScore(values)
	assert.Equal(t, []float64{9, 1, 5}, values)
}
