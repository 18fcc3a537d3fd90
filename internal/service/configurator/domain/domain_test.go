package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelections_LaterEntryWins(t *testing.T) {
	s := NewSelections(
		ConfigurationSelection{PartTypeID: "frame", PartOptionID: "diamond", Quantity: 1},
		ConfigurationSelection{PartTypeID: "wheels", PartOptionID: "road", Quantity: 1},
		ConfigurationSelection{PartTypeID: "frame", PartOptionID: "full-suspension", Quantity: 1},
	)
	require.Len(t, s, 2)
	assert.Equal(t, "full-suspension", s[0].PartOptionID)
	assert.True(t, s.Has("road"))
	assert.False(t, s.Has("diamond"))
	assert.True(t, s.HasPartType("wheels"))
	assert.False(t, s.HasPartType("chain"))
}

func TestSelections_UpsertDoesNotMutate(t *testing.T) {
	s := NewSelections(ConfigurationSelection{PartTypeID: "frame", PartOptionID: "diamond", Quantity: 1})
	next := s.Upsert(ConfigurationSelection{PartTypeID: "frame", PartOptionID: "step-through", Quantity: 1})
	assert.Equal(t, "diamond", s[0].PartOptionID)
	assert.Equal(t, "step-through", next[0].PartOptionID)
}

func TestNewValidationResult(t *testing.T) {
	ok := NewValidationResult(nil)
	assert.True(t, ok.IsValid)
	assert.NotNil(t, ok.Errors)

	bad := NewValidationResult([]string{"x"})
	assert.False(t, bad.IsValid)
}

func TestNewProductConfiguration(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sel := NewSelections(ConfigurationSelection{PartTypeID: "frame", PartOptionID: "diamond", Quantity: 1})
	cfg := NewProductConfiguration("bike", sel, NewValidationResult([]string{"bad"}), decimal.NewFromInt(-3), now)

	assert.NotEmpty(t, cfg.ID)
	assert.True(t, cfg.TotalPrice.IsZero())
	assert.False(t, cfg.IsValid)
	assert.Equal(t, []string{"bad"}, cfg.ValidationErrors)
	assert.Equal(t, now, cfg.CreatedAt)

	sel[0].PartOptionID = "changed"
	assert.Equal(t, "diamond", cfg.Selections[0].PartOptionID)
}

func TestCart_Lifecycle(t *testing.T) {
	now := time.Now()
	cart := NewCart("sess-1", now)
	cfg := &ProductConfiguration{ID: "cfg-1", TotalPrice: decimal.RequireFromString("1073.00")}

	cart.AddConfiguration(cfg, 1, now)
	cart.AddConfiguration(cfg, 2, now)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "3219.00", cart.TotalAmount.StringFixed(2))

	itemID := cart.Items[0].ID
	require.NoError(t, cart.SetQuantity(itemID, 1, now))
	assert.Equal(t, "1073.00", cart.TotalAmount.StringFixed(2))

	assert.ErrorIs(t, cart.SetQuantity("missing", 1, now), ErrCartItemNotFound)
	assert.ErrorIs(t, cart.RemoveItem("missing", now), ErrCartItemNotFound)

	require.NoError(t, cart.SetQuantity(itemID, 0, now))
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())

	cart.AddConfiguration(cfg, 1, now)
	cart.Clear(now)
	assert.Empty(t, cart.Items)
}

func TestParseRuleKind(t *testing.T) {
	for _, name := range []string{"REQUIRES", "FORBIDS", "ENABLES", "DISABLES"} {
		k, err := ParseRuleKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, RuleKindName(k))
	}
	_, err := ParseRuleKind("MAYBE")
	assert.Error(t, err)
}

func TestParseEffect(t *testing.T) {
	v := decimal.NewFromInt(50)
	e, err := ParseEffect("REPLACE", v, "matte")
	require.NoError(t, err)
	assert.Equal(t, Replace{Value: v, TargetPartOptionID: "matte"}, e)
	assert.Equal(t, "matte", EffectTarget(e))
	assert.True(t, EffectValue(e).Equal(v))

	e, err = ParseEffect("ADD", v, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "", EffectTarget(e))

	_, err = ParseEffect("DIVIDE", v, "")
	assert.Error(t, err)
}

func TestErrorsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("get product: %w", &StorageError{Op: "products.get", Err: errors.New("dial tcp: refused")})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	inv := &InvalidConfigurationError{ConfigurationID: "c1", Errors: []string{"a", "b"}}
	assert.ErrorIs(t, inv, ErrInvalidConfiguration)
	assert.Contains(t, inv.Error(), "a; b")
}
