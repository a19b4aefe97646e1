package quote

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/state"
)

const DefaultKey = "medlab-quote.v1"

// DefaultLegacyKeys are read once when DefaultKey holds nothing yet.
var DefaultLegacyKeys = []string{"medlab-quote", "requestItems"}

// Persistence loads and saves the full item list.
type Persistence interface {
	Load(ctx context.Context) ([]domain.QuoteItem, error)
	Save(ctx context.Context, items []domain.QuoteItem) error
}

// KeyValuePersistence stores the quote as a JSON array under a single key of a state.Store.
type KeyValuePersistence struct {
	store      state.Store
	key        string
	legacyKeys []string
}

func NewKeyValuePersistence(store state.Store, key string, legacyKeys ...string) *KeyValuePersistence {
	if key == "" {
		key = DefaultKey
	}
	return &KeyValuePersistence{
		store:      store,
		key:        key,
		legacyKeys: legacyKeys,
	}
}

func (p *KeyValuePersistence) Key() string {
	return p.key
}

func (p *KeyValuePersistence) Load(ctx context.Context) ([]domain.QuoteItem, error) {
	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote: %w", err)
	}
	if ok {
		return decodeOrEmpty(p.key, raw), nil
	}

	for _, legacy := range p.legacyKeys {
		if legacy == "" || legacy == p.key {
			continue
		}
		raw, ok, err := p.store.Get(ctx, legacy)
		if err != nil {
			return nil, fmt.Errorf("failed to read legacy quote %s: %w", legacy, err)
		}
		if !ok {
			continue
		}

		items := decodeOrEmpty(legacy, raw)
		if err := p.Save(ctx, items); err != nil {
			log.WithError(err).Warnf("⚠️ Could not migrate quote from %s to %s", legacy, p.key)
		} else {
			log.Infof("📦 Migrated %d quote items from %s to %s", len(items), legacy, p.key)
		}
		return items, nil
	}

	return nil, nil
}

func (p *KeyValuePersistence) Save(ctx context.Context, items []domain.QuoteItem) error {
	raw, err := Encode(items)
	if err != nil {
		return err
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func decodeOrEmpty(key, raw string) []domain.QuoteItem {
	items, err := Decode(raw)
	if err != nil {
		log.WithError(err).Warnf("⚠️ Discarding unreadable quote stored under %s", key)
		return nil
	}
	return items
}

// Encode serializes items with the product stored in full.
func Encode(items []domain.QuoteItem) (string, error) {
	if items == nil {
		items = []domain.QuoteItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode quote: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored quote. Entries without a product id or with quantity below 1
// are dropped and repeated products are merged into the first occurrence.
func Decode(raw string) ([]domain.QuoteItem, error) {
	var stored []domain.QuoteItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	return normalize(stored), nil
}

func normalize(stored []domain.QuoteItem) []domain.QuoteItem {
	items := make([]domain.QuoteItem, 0, len(stored))
	position := make(map[string]int, len(stored))
	for _, item := range stored {
		if item.Product.ID == "" || item.Quantity < 1 {
			continue
		}
		if i, ok := position[item.Product.ID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		position[item.Product.ID] = len(items)
		items = append(items, item)
	}
	return items
}
