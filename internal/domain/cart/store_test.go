package cart

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitItem(id, price string) LineItem {
	return LineItem{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Quantity: 1,
	}
}

func weightedItem(id, price, gramm string) LineItem {
	g := decimal.RequireFromString(gramm)
	item := unitItem(id, price)
	item.Gramm = &g
	return item
}

func TestStore_Get_UnknownSessionIsEmpty(t *testing.T) {
	store := NewStore()

	items := store.Get("missing")
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStore_Add_MergesUnitPricedItems(t *testing.T) {
	store := NewStore()

	store.Add("s1", unitItem("A", "2.50"))
	store.Add("s1", unitItem("A", "2.50"))

	items := store.Get("s1")
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("5.00").Equal(Total(items)))
}

func TestStore_Add_MergeSumsQuantities(t *testing.T) {
	store := NewStore()

	quantities := []int{1, 3, 2, 5}
	for _, q := range quantities {
		item := unitItem("A", "1.10")
		item.Quantity = q
		store.Add("s1", item)
	}

	items := store.Get("s1")
	require.Len(t, items, 1)
	assert.Equal(t, 11, items[0].Quantity)
}

func TestStore_Add_WeightedItemsAlwaysAppend(t *testing.T) {
	store := NewStore()

	for i := 0; i < 4; i++ {
		item := weightedItem("W", "3.20", fmt.Sprintf("%d", 100+i))
		item.Quantity = 7
		store.Add("s1", item)
	}

	items := store.Get("s1")
	require.Len(t, items, 4)
	for _, item := range items {
		assert.Equal(t, 1, item.Quantity)
		assert.True(t, item.Weighted())
	}
}

func TestStore_Add_WeightedDoesNotMergeWithUnitPriced(t *testing.T) {
	store := NewStore()

	store.Add("s1", unitItem("A", "1.00"))
	store.Add("s1", weightedItem("A", "4.00", "250"))
	store.Add("s1", unitItem("A", "1.00"))

	items := store.Get("s1")
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[1].Weighted())
}

func TestStore_SetQuantity(t *testing.T) {
	store := NewStore()
	store.Add("s1", unitItem("A", "1.00"))
	store.Add("s1", unitItem("B", "2.00"))

	store.SetQuantity("s1", "A", 4)
	store.SetQuantity("s1", "missing", 9)
	store.SetQuantity("other-session", "A", 9)

	items := store.Get("s1")
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Empty(t, store.Get("other-session"))
}

func TestStore_SetQuantity_ZeroRemovesEntry(t *testing.T) {
	store := NewStore()
	store.Add("s1", unitItem("A", "1.00"))
	store.Add("s1", unitItem("B", "2.00"))

	store.SetQuantity("s1", "A", 0)

	items := store.Get("s1")
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ID)
}

func TestStore_Remove(t *testing.T) {
	store := NewStore()
	store.Add("s1", unitItem("A", "1.00"))
	store.Add("s1", weightedItem("A", "2.00", "120"))
	store.Add("s1", unitItem("B", "2.00"))

	store.Remove("s1", "A")
	for _, item := range store.Get("s1") {
		assert.NotEqual(t, "A", item.ID)
	}

	before := store.Get("s1")
	store.Remove("s1", "does-not-exist")
	assert.Equal(t, before, store.Get("s1"))
}

func TestStore_Clear(t *testing.T) {
	store := NewStore()
	store.Add("s1", unitItem("A", "1.00"))
	store.Add("s2", unitItem("A", "1.00"))

	store.Clear("s1")

	assert.Empty(t, store.Get("s1"))
	assert.Len(t, store.Get("s2"), 1)
	assert.Equal(t, 1, store.Len())
}

func TestStore_Get_ReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Add("s1", weightedItem("W", "2.00", "100"))

	items := store.Get("s1")
	items[0].Quantity = 42
	*items[0].Gramm = decimal.NewFromInt(999)

	fresh := store.Get("s1")
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(*fresh[0].Gramm))
}

func TestStore_ConcurrentAddsSameSession(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Add("s1", unitItem("A", "0.10"))
		}()
	}
	wg.Wait()

	items := store.Get("s1")
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}

func TestTotal_IsDecimalAccurate(t *testing.T) {
	items := []LineItem{
		unitItem("A", "0.10"),
		unitItem("B", "0.20"),
	}
	items[0].Quantity = 3

	assert.Equal(t, "0.50", Total(items).StringFixed(2))
}
