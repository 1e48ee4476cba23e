package shopping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateMergesAcrossRecipes(t *testing.T) {
	// recipe A: Salt 10g, Sugar 5g; recipe B: Salt 15g, Pepper 2g
	items := []Item{
		{Name: "Salt", Unit: "g", Amount: 10},
		{Name: "Sugar", Unit: "g", Amount: 5},
		{Name: "Salt", Unit: "g", Amount: 15},
		{Name: "Pepper", Unit: "g", Amount: 2},
	}

	lines := Aggregate(items)
	assert.Equal(t, []Line{
		{Name: "Pepper", Unit: "g", Amount: 2},
		{Name: "Salt", Unit: "g", Amount: 25},
		{Name: "Sugar", Unit: "g", Amount: 5},
	}, lines)
	assert.Equal(t, "Pepper: 2 g\nSalt: 25 g\nSugar: 5 g\n", Render(lines))
}

func TestAggregateKeepsUnitsApart(t *testing.T) {
	lines := Aggregate([]Item{
		{Name: "Salt", Unit: "pinch", Amount: 1},
		{Name: "Salt", Unit: "g", Amount: 3},
		{Name: "Salt", Unit: "pinch", Amount: 2},
	})
	assert.Equal(t, []Line{
		{Name: "Salt", Unit: "g", Amount: 3},
		{Name: "Salt", Unit: "pinch", Amount: 3},
	}, lines)
}

func TestAggregateEmptyCart(t *testing.T) {
	lines := Aggregate(nil)
	assert.Empty(t, lines)
	assert.Equal(t, "", Render(lines))
}

func TestAggregateDoesNotOverflow(t *testing.T) {
	items := make([]Item, 100000)
	for i := range items {
		items[i] = Item{Name: "Flour", Unit: "g", Amount: 32767}
	}
	lines := Aggregate(items)
	assert.Equal(t, int64(32767)*100000, lines[0].Amount)
}
