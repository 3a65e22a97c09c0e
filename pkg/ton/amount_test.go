package ton

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNanotons(t *testing.T) {
	tests := []struct {
		name        string
		amount      float64
		expected    string
		expectedErr error
	}{
		{name: "one TON", amount: 1, expected: "1000000000"},
		{name: "half TON", amount: 0.5, expected: "500000000"},
		{name: "small amount", amount: 0.0005, expected: "500000"},
		{name: "minimum", amount: 0.0001, expected: "100000"},
		{name: "maximum", amount: 1000, expected: "1000000000000"},
		{name: "truncates below one nanoton", amount: 1.0000000019, expected: "1000000001"},
		{name: "two decimals", amount: 0.29, expected: "290000000"},
		{name: "zero", amount: 0, expectedErr: ErrInvalidAmount},
		{name: "negative", amount: -3, expectedErr: ErrInvalidAmount},
		{name: "NaN", amount: math.NaN(), expectedErr: ErrInvalidAmount},
		{name: "infinity", amount: math.Inf(1), expectedErr: ErrInvalidAmount},
		{name: "below minimum", amount: 0.00005, expectedErr: ErrBelowMinimum},
		{name: "above maximum", amount: 1001, expectedErr: ErrAboveMaximum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nano, err := ToNanotons(tt.amount)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, nano)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, nano)
		})
	}
}

func TestToNanotons_MatchesFloorAndRoundTrips(t *testing.T) {
	amounts := []float64{0.0001, 0.001, 0.0123, 0.1, 0.25, 1.5, 3.14159, 42, 99.999, 100, 512.5, 999.999999999}

	for _, amount := range amounts {
		nano, err := ToNanotons(amount)
		require.NoError(t, err, "amount %v", amount)

		n, err := strconv.ParseInt(nano, 10, 64)
		require.NoError(t, err)

		assert.InDelta(t, math.Floor(amount*NanoPerTON), float64(n), 1, "amount %v", amount)
		assert.InDelta(t, amount, float64(n)/NanoPerTON, 1e-9, "amount %v", amount)

		back, err := FromNanotons(nano)
		require.NoError(t, err)
		assert.InDelta(t, amount, back.InexactFloat64(), 1e-9)
	}
}

func TestLimits_CustomBounds(t *testing.T) {
	l := Limits{Min: 1, Max: 10, LargeTransfer: 5}

	assert.ErrorIs(t, l.Validate(0.5), ErrBelowMinimum)
	assert.ErrorIs(t, l.Validate(10.5), ErrAboveMaximum)
	assert.NoError(t, l.Validate(10))

	assert.False(t, l.RequiresConfirmation(4.99))
	assert.True(t, l.RequiresConfirmation(5))
	assert.True(t, l.RequiresConfirmation(9))

	assert.False(t, Limits{Min: 1, Max: 10}.RequiresConfirmation(9))
}

func TestFromNanotons(t *testing.T) {
	d, err := FromNanotons("1500000000")
	require.NoError(t, err)
	assert.Equal(t, "1.5", Format(d))

	_, err = FromNanotons("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromNanotons("-5")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromNanotons("1.5")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"EQD4FPq-PRD4YtG87wgL7AErgQwHUMFQ-JxyYw8jzBPhqjfH",
		"0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8",
		"-1:3333333333333333333333333333333333333333333333333333333333333333",
	}
	for _, addr := range valid {
		assert.NoError(t, ValidateAddress(addr), addr)
	}

	invalid := []string{
		"",
		"EQD4FPq",
		"0:xyz",
		"a:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8",
		"EQD4FPq-PRD4YtG87wgL7AErgQwHUMFQ-JxyYw8jzBPhqj!!",
	}
	for _, addr := range invalid {
		assert.ErrorIs(t, ValidateAddress(addr), ErrInvalidAddress, addr)
	}
}
