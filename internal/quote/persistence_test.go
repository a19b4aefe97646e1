package quote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medlab/catalog/internal/domain"
	"medlab/catalog/internal/state"
)

func TestDecodeDropsInvalidAndMergesDuplicates(t *testing.T) {
	raw := `[
		{"product": {"id": "ecg-001", "name": "ECG"}, "quantity": 1},
		{"product": {"id": ""}, "quantity": 3},
		{"product": {"id": "pm-001", "name": "Monitor"}, "quantity": 0},
		{"product": {"id": "ecg-001", "name": "ECG"}, "quantity": 2}
	]`

	items, err := Decode(raw)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ecg-001", items[0].Product.ID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"{not json", `{"product":{}}`, `"text"`} {
		_, err := Decode(raw)
		assert.Error(t, err, raw)
	}
}

func TestEncodeEmpty(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestEncodeKeepsOptionalFieldsOut(t *testing.T) {
	raw, err := Encode([]domain.QuoteItem{{
		Product:  domain.Product{ID: "ecg-001", Name: "ECG", Brand: domain.Some("Philips")},
		Quantity: 2,
	}})
	require.NoError(t, err)

	assert.Contains(t, raw, `"brand":"Philips"`)
	assert.NotContains(t, raw, `"price"`)
	assert.Contains(t, raw, `"quantity":2`)
}

func TestLoadMigratesLegacyKey(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "requestItems", `[{"product":{"id":"ecg-001","name":"ECG"},"quantity":2}]`))

	p := NewKeyValuePersistence(store, "", DefaultLegacyKeys...)
	items, err := p.Load(ctx)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	migrated, ok, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"product":{"id":"ecg-001","name":"ECG","description":"","categorySlug":""},"quantity":2}]`, migrated)
}

func TestLoadPrefersCanonicalKey(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, `[]`))
	require.NoError(t, store.Set(ctx, "medlab-quote", `[{"product":{"id":"ecg-001"},"quantity":2}]`))

	items, err := NewKeyValuePersistence(store, DefaultKey, DefaultLegacyKeys...).Load(ctx)

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoadEmptyStore(t *testing.T) {
	items, err := NewKeyValuePersistence(state.NewMemoryStore(), DefaultKey).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
