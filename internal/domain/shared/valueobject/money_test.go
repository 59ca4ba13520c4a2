package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), EUR)
		require.NoError(t, err)
		assert.Equal(t, EUR, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1234.56", EUR)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", m.StringFixed(2))

	_, err = NewMoneyFromString("not-a-number", EUR)
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a, _ := NewMoneyEURFromString("100.50")
	b, _ := NewMoneyEURFromString("49.50")

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "150.00", sum.StringFixed(2))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "51.00", diff.StringFixed(2))
	})

	t.Run("mismatched currencies fail", func(t *testing.T) {
		usd, _ := NewMoneyFromString("10.00", USD)
		_, err := a.Add(usd)
		assert.Error(t, err)
		_, err = a.Subtract(usd)
		assert.Error(t, err)
	})

	t.Run("multiply", func(t *testing.T) {
		doubled := a.Multiply(decimal.NewFromInt(2))
		assert.Equal(t, "201.00", doubled.StringFixed(2))
	})
}

func TestMoneyRoundHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"rounds half up", "10.005", "10.01"},
		{"rounds down below half", "10.004", "10.00"},
		{"exact two places unchanged", "10.01", "10.01"},
		{"rounds up above half", "0.999", "1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyEURFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.RoundHalfUp().StringFixed(2))
		})
	}
}

func TestMoneyPercentage(t *testing.T) {
	m, _ := NewMoneyEURFromString("1000.00")

	interest := m.CalculatePercentage(decimal.NewFromInt(5)).RoundHalfUp()
	assert.Equal(t, "50.00", interest.StringFixed(2))

	interest = m.CalculatePercentage(decimal.NewFromInt(8)).RoundHalfUp()
	assert.Equal(t, "80.00", interest.StringFixed(2))
}

func TestMoneyComparisons(t *testing.T) {
	small, _ := NewMoneyEURFromString("1.00")
	big, _ := NewMoneyEURFromString("2.00")

	lt, err := small.LessThan(big)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, small.Equals(small))
	assert.False(t, small.Equals(big))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m, _ := NewMoneyEURFromString("19.99")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"19.99","currency":"EUR"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("12.34"))
	assert.Equal(t, "12.34", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
