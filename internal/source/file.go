package source

import (
	"context"
	"fmt"
	"os"

	"medlab/catalog/internal/domain"
)

type fileSource struct {
	path string
}

func NewFile(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string {
	return KindFile + ":" + s.path
}

func (s *fileSource) Load(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return decode(data)
}
