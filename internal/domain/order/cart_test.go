package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeItems_DropsInvalidEntries(t *testing.T) {
	got := NormalizeItems([]CartItem{
		{ItemID: 1, Quantity: 2},
		{ItemID: 0, Quantity: 5},
		{ItemID: -3, Quantity: 1},
		{ItemID: 2, Quantity: 0},
		{ItemID: 3, Quantity: -1},
	})

	assert.Equal(t, []CartItem{{ItemID: 1, Quantity: 2}}, got)
}

func TestNormalizeItems_MergesDuplicates(t *testing.T) {
	got := NormalizeItems([]CartItem{
		{ItemID: 1, Quantity: 1},
		{ItemID: 2, Quantity: 3},
		{ItemID: 1, Quantity: 2},
		{ItemID: 2, Quantity: 1},
		{ItemID: 1, Quantity: 1},
	})

	assert.Equal(t, []CartItem{
		{ItemID: 1, Quantity: 4},
		{ItemID: 2, Quantity: 4},
	}, got)
}

func TestNormalizeItems_PreservesFirstSeenOrder(t *testing.T) {
	got := NormalizeItems([]CartItem{
		{ItemID: 9, Quantity: 1},
		{ItemID: 4, Quantity: 1},
		{ItemID: 9, Quantity: 1},
		{ItemID: 7, Quantity: 2},
	})

	assert.Equal(t, []CartItem{
		{ItemID: 9, Quantity: 2},
		{ItemID: 4, Quantity: 1},
		{ItemID: 7, Quantity: 2},
	}, got)
}

func TestNormalizeItems_Empty(t *testing.T) {
	assert.Empty(t, NormalizeItems(nil))
	assert.Empty(t, NormalizeItems([]CartItem{{ItemID: 5, Quantity: -2}}))
}

func TestTotalQuantity(t *testing.T) {
	assert.Equal(t, 0, totalQuantity(nil))
	assert.Equal(t, 7, totalQuantity([]CartItem{
		{ItemID: 1, Quantity: 3},
		{ItemID: 2, Quantity: 4},
	}))
}
