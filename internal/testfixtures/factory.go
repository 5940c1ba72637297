// Package testfixtures builds cart items for tests. All state lives in the
// values it returns, so parallel tests never share keys.
package testfixtures

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type key struct{ owner, item int64 }

// KeyGenerator hands out (owner, item) pairs that are unique for the life
// of the generator.
type KeyGenerator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	seen     map[key]struct{}
	maxOwner int64
	maxItem  int64
}

func NewKeyGenerator(seed uint64) *KeyGenerator {
	return &KeyGenerator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seen:     map[key]struct{}{},
		maxOwner: 10_000,
		maxItem:  100_000,
	}
}

// Next returns a fresh pair with a random owner.
func (g *KeyGenerator) Next() (ownerID, itemID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		k := key{owner: g.rng.Int64N(g.maxOwner) + 1, item: g.rng.Int64N(g.maxItem) + 1}
		if g.claim(k) {
			return k.owner, k.item
		}
	}
}

// NextItem returns an item id not yet used for ownerID.
func (g *KeyGenerator) NextItem(ownerID int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		k := key{owner: ownerID, item: g.rng.Int64N(g.maxItem) + 1}
		if g.claim(k) {
			return k.item
		}
	}
}

// Reserve marks a pair as used. It reports false if it already was.
func (g *KeyGenerator) Reserve(ownerID, itemID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claim(key{owner: ownerID, item: itemID})
}

func (g *KeyGenerator) claim(k key) bool {
	if _, ok := g.seen[k]; ok {
		return false
	}
	g.seen[k] = struct{}{}
	return true
}

func (g *KeyGenerator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Factory builds valid CartItems with unique keys.
type Factory struct {
	Keys *KeyGenerator
}

func NewFactory(seed uint64) *Factory {
	return &Factory{Keys: NewKeyGenerator(seed)}
}

func (f *Factory) Item() models.CartItem {
	owner, item := f.Keys.Next()
	return f.build(owner, item)
}

func (f *Factory) ItemFor(ownerID int64) models.CartItem {
	return f.build(ownerID, f.Keys.NextItem(ownerID))
}

// Cart returns n items sharing one owner.
func (f *Factory) Cart(ownerID int64, n int) []models.CartItem {
	items := make([]models.CartItem, 0, n)
	for range n {
		items = append(items, f.ItemFor(ownerID))
	}
	return items
}

func (f *Factory) build(ownerID, itemID int64) models.CartItem {
	f.Keys.mu.Lock()
	qty := f.Keys.rng.IntN(50) + 1
	cents := f.Keys.rng.Int64N(100_000)
	f.Keys.mu.Unlock()

	return models.CartItem{
		OwnerID:     ownerID,
		ItemID:      itemID,
		Description: fmt.Sprintf("item-%s", uuid.NewString()[:8]),
		Quantity:    qty,
		UnitPrice:   decimal.New(cents, -2),
	}
}
