package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddMergesByID(t *testing.T) {
	c := NewCart(nil)
	c.Add(CartItem{ID: "p1", Name: "Guitar", Price: 1000, Quantity: 1})
	c.Add(CartItem{ID: "p1", Name: "Guitar", Price: 1000, Quantity: 2})

	items := c.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.EqualValues(t, 3000, c.Total())
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := NewCart([]CartItem{{ID: "p1", Price: 500, Quantity: 1}})
	c.Remove("absent")
	c.Remove("p1")
	c.Remove("p1")
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.Total())
}

func TestClear(t *testing.T) {
	c := NewCart([]CartItem{{ID: "p1", Price: 500, Quantity: 2}, {ID: "p2", Price: 100, Quantity: 1}})
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.Total())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := NewCart([]CartItem{{ID: "p1", Price: 500, Quantity: 1}})
	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

// 任意 add/setQuantity/remove 序列之后，总价等于各行单价乘数量之和
func TestTotalMatchesLinesUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c", "d"}
	prices := map[string]int64{"a": 100, "b": 2500, "c": 39800, "d": 1}

	c := NewCart(nil)
	for step := 0; step < 500; step++ {
		id := ids[rng.Intn(len(ids))]
		switch rng.Intn(3) {
		case 0:
			c.Add(CartItem{ID: id, Price: prices[id], Quantity: 1 + rng.Intn(10)})
		case 1:
			c.SetQuantity(id, 1+rng.Intn(10))
		case 2:
			c.Remove(id)
		}

		var want int64
		seen := map[string]bool{}
		for _, it := range c.Items() {
			assert.False(t, seen[it.ID], "duplicate line %s", it.ID)
			seen[it.ID] = true
			want += it.Price * int64(it.Quantity)
		}
		assert.Equal(t, want, c.Total())
	}
}
