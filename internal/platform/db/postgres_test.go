package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedDSN(t *testing.T) {
	pool, err := New(context.Background(), "postgres://%zz", Options{})
	require.Nil(t, pool)
	require.ErrorContains(t, err, "platform/db: parse config")
}
