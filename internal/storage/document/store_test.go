package document

import (
	"context"
	"os"
	"testing"

	"github.com/astrosynth/atlas/internal/planet/domain"
	"github.com/astrosynth/atlas/internal/storage/storagetest"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The document store needs a live redis; set REDIS_ADDR to run this suite.
func newTestStore(t *testing.T) domain.Backend {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Del(context.Background(), planetsKey, metadataKey).Err())
	return New(client, zap.NewNop())
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, newTestStore)
}
