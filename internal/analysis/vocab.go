package analysis

import "sync"

// fallbackVocabulary is used when the per-product vocabulary cannot be
// derived. It skews towards consumer electronics, matching the products this
// system was first pointed at; "general" is the escape hatch the classifier
// falls back to.
var fallbackVocabulary = []string{
	"battery life",
	"price",
	"health features",
	"fitness tracking",
	"design",
	"notifications",
	"sleep tracking",
	"ECG",
	"heart rate accuracy",
	"durability",
	"water resistance",
	"charging speed",
	"Siri",
	"apps ecosystem",
	"integration with iPhone",
	"screen brightness",
	"cellular connectivity",
	"Apple Pay",
	"maps/navigation",
	"bands/straps",
	"general",
}

// VocabCache holds derived attribute vocabularies keyed by product name for
// the lifetime of the service instance. There is no eviction; the product set
// is small and bounded by configuration in practice.
type VocabCache struct {
	mu     sync.RWMutex
	byName map[string][]string
}

// NewVocabCache creates an empty vocabulary cache
func NewVocabCache() *VocabCache {
	return &VocabCache{byName: make(map[string][]string)}
}

// Get returns the cached vocabulary for a product, if any.
func (c *VocabCache) Get(product string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vocab, ok := c.byName[product]
	return vocab, ok
}

// Put stores a product's vocabulary.
func (c *VocabCache) Put(product string, vocab []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[product] = vocab
}
