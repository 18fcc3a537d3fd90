package rule

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/service/configurator/domain"
)

func TestCELRuleEngine_Evaluate(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.PromoFact{Total: decimal.RequireFromString("1073.00"), ItemCount: 2}
	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"total >= 1000.0", true},
		{"total >= 2000.0", false},
		{"item_count >= 2 && total > 500.0", true},
		{"item_count > 5", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := engine.Evaluate(tt.expr, fact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELRuleEngine_Errors(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)
	fact := domain.PromoFact{Total: decimal.NewFromInt(10)}

	_, err = engine.Evaluate("total +", fact)
	assert.Error(t, err)

	_, err = engine.Evaluate("total * 2.0", fact)
	assert.ErrorContains(t, err, "must return bool")

	_, err = engine.Evaluate("unknown_var > 1", fact)
	assert.Error(t, err)
}

func TestCELRuleEngine_CachesPrograms(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)
	fact := domain.PromoFact{Total: decimal.NewFromInt(10), ItemCount: 1}

	for i := 0; i < 3; i++ {
		ok, err := engine.Evaluate("item_count == 1", fact)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	_, cached := engine.programs.Load("item_count == 1")
	assert.True(t, cached)
}
