package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		wantErr  bool
	}{
		{name: "valid USD amount", amount: "100.50", currency: USD, wantErr: false},
		{name: "zero amount", amount: "0", currency: USD, wantErr: false},
		{name: "negative amount allowed", amount: "-10.25", currency: USD, wantErr: false},
		{name: "empty currency rejected", amount: "100", currency: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)

			m, err := NewMoney(d, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, m.Amount().Equal(d))
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestMoney_Add(t *testing.T) {
	tests := []struct {
		name    string
		a       Money
		b       Money
		want    string
		wantErr bool
	}{
		{
			name: "same currency",
			a:    mustUSD(t, "100.50"),
			b:    mustUSD(t, "49.50"),
			want: "150",
		},
		{
			name: "exact cents with no float drift",
			a:    mustUSD(t, "0.10"),
			b:    mustUSD(t, "0.20"),
			want: "0.30",
		},
		{
			name:    "different currencies rejected",
			a:       mustUSD(t, "100"),
			b:       mustMoney(t, "100", EUR),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Add(tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Amount().Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got.Amount(), tt.want)
		})
	}
}

func TestMoney_Subtract(t *testing.T) {
	a := mustUSD(t, "100.00")
	b := mustUSD(t, "73.25")

	got, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "26.75", got.StringFixed())

	_, err = a.Subtract(mustMoney(t, "1", GBP))
	assert.Error(t, err)
}

func TestMoney_Immutability(t *testing.T) {
	original := mustUSD(t, "50.00")

	_ = original.MustAdd(mustUSD(t, "25.00"))
	_ = original.Negate()
	_ = original.Multiply(decimal.NewFromInt(3))

	assert.Equal(t, "50.00", original.StringFixed())
}

func TestMoney_RoundToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		want     string
	}{
		{name: "half rounds up", amount: "10.125", currency: USD, want: "10.13"},
		{name: "below half rounds down", amount: "10.124", currency: USD, want: "10.12"},
		{name: "already exact", amount: "10.12", currency: USD, want: "10.12"},
		{name: "JPY has no minor units", amount: "100.5", currency: JPY, want: "101"},
		{name: "JPY below half", amount: "100.4", currency: JPY, want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMoney(t, tt.amount, tt.currency)
			assert.Equal(t, tt.want, m.RoundToMinorUnits().StringFixed())
		})
	}
}

func TestMoney_Comparisons(t *testing.T) {
	a := mustUSD(t, "10.00")
	b := mustUSD(t, "20.00")

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(mustUSD(t, "10.000")))
	assert.False(t, a.Equals(mustMoney(t, "10.00", EUR)))

	_, err = a.LessThan(mustMoney(t, "10", EUR))
	assert.Error(t, err)
}

func TestMoney_SignPredicates(t *testing.T) {
	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, mustUSD(t, "0.01").IsPositive())
	assert.True(t, mustUSD(t, "-0.01").IsNegative())
	assert.Equal(t, "0.01", mustUSD(t, "-0.01").Abs().StringFixed())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := mustUSD(t, "1234.56")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.56","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("99.99"))
	assert.Equal(t, "99.99", m.StringFixed())
	assert.Equal(t, DefaultCurrency, m.Currency())

	var fromBytes Money
	require.NoError(t, fromBytes.Scan([]byte("12.34")))
	assert.Equal(t, "12.34", fromBytes.StringFixed())

	var fromNil Money
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var bad Money
	assert.Error(t, bad.Scan(42))
}

func mustUSD(t *testing.T, amount string) Money {
	t.Helper()
	m, err := NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	return m
}

func mustMoney(t *testing.T, amount string, currency Currency) Money {
	t.Helper()
	m, err := NewMoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}
