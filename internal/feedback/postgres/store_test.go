package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRequiresPool(t *testing.T) {
	s := NewStore(nil)
	err := s.Init(context.Background())
	require.Error(t, err)
}
