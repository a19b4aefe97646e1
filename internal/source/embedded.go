package source

import (
	"context"
	_ "embed"

	"medlab/catalog/internal/domain"
)

//go:embed data/catalog.json
var embeddedCatalog []byte

type embeddedSource struct{}

// Embedded is the catalogue shipped inside the binary.
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Name() string {
	return KindEmbedded
}

func (embeddedSource) Load(context.Context) (*domain.Dataset, error) {
	return decode(embeddedCatalog)
}
