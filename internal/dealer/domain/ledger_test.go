package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amounts(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func TestComputeBalance(t *testing.T) {
	balance := ComputeBalance(7, amounts("100.00", "150.00"), amounts("100.00"))

	assert.EqualValues(t, 7, balance.DealerID)
	assert.True(t, balance.TotalOrdered.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, balance.TotalPaid.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, balance.Outstanding.Equal(decimal.RequireFromString("150.00")))
}

func TestComputeBalanceNoActivity(t *testing.T) {
	balance := ComputeBalance(7, nil, nil)

	assert.True(t, balance.TotalOrdered.IsZero())
	assert.True(t, balance.TotalPaid.IsZero())
	assert.True(t, balance.Outstanding.IsZero())
}

func TestComputeBalanceOverpaid(t *testing.T) {
	balance := ComputeBalance(7, amounts("50.00"), amounts("80.00"))

	assert.True(t, balance.Outstanding.Equal(decimal.RequireFromString("-30.00")))
}

func TestComputeBalanceIsIdempotent(t *testing.T) {
	ordered := amounts("10.50", "20.25")
	paid := amounts("5.00")

	first := ComputeBalance(1, ordered, paid)
	second := ComputeBalance(1, ordered, paid)

	assert.True(t, first.Outstanding.Equal(second.Outstanding))
}
