package qdrant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresCollectionName(t *testing.T) {
	_, err := New(context.Background(), Config{Dimensions: 128})
	require.Error(t, err)
}

func TestNewRequiresPositiveDimensions(t *testing.T) {
	_, err := New(context.Background(), Config{Collection: "wealth"})
	require.Error(t, err)
}

func TestPointIDIsStableForTheSameID(t *testing.T) {
	a := pointID("doc-42")
	b := pointID("doc-42")
	require.Equal(t, a, b)
	require.NotEqual(t, "doc-42", a, "non-UUID ids must be rehashed for Qdrant")
}

func TestPointIDPassesThroughExistingUUIDs(t *testing.T) {
	const valid = "123e4567-e89b-12d3-a456-426614174000"
	require.Equal(t, valid, pointID(valid))
}
