package keygen_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltss/cggmp21/internal/test"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
	"github.com/cobaltss/cggmp21/protocols/cmp/keygen"
)

// runKeygen drives a full n-party keygen to completion and returns each
// party's resulting Config, keyed by ID.
func runKeygen(t *testing.T, n, threshold int) map[party.ID]*config.Config {
	t.Helper()
	group := curve.Secp256k1{}
	partyIDs := test.PartyIDs(n)
	net := test.NewNetwork(partyIDs)
	pl := pool.NewPool(0)

	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		results = make(map[party.ID]*config.Config, n)
	)
	wg.Add(n)
	for _, id := range partyIDs {
		id := id
		go func() {
			defer wg.Done()
			h, err := protocol.NewMultiHandler(keygen.StartKeygen(group, partyIDs, threshold, id, pl), nil)
			require.NoError(t, err)
			require.NoError(t, test.HandlerLoop(id, h, net))

			result, err := h.Result()
			require.NoError(t, err)
			cfg, ok := result.(*config.Config)
			require.True(t, ok)

			mtx.Lock()
			results[id] = cfg
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func TestKeygenProducesConsistentConfigs(t *testing.T) {
	const n, threshold = 4, 1
	results := runKeygen(t, n, threshold)
	require.Len(t, results, n)

	var first *config.Config
	for _, cfg := range results {
		require.NoError(t, cfg.Validate())
		if first == nil {
			first = cfg
			continue
		}
		assert.True(t, first.PublicPoint().Equal(cfg.PublicPoint()), "every party must agree on the combined public key")
		assert.Equal(t, first.RID, cfg.RID)
		assert.Equal(t, first.ChainKey, cfg.ChainKey)
		assert.Equal(t, first.Threshold, cfg.Threshold)
	}

	for id, cfg := range results {
		assert.Equal(t, id, cfg.ID)
		assert.True(t, cfg.ECDSA.ActOnBase().Equal(cfg.Public[id].ECDSA))
	}
}

func TestKeygenNonThreshold(t *testing.T) {
	results := runKeygen(t, 3, 0)
	require.Len(t, results, 3)
	for _, cfg := range results {
		assert.Equal(t, 0, cfg.Threshold)
		assert.NoError(t, cfg.Validate())
	}
}

func TestStartKeygenRejectsUnknownSelfID(t *testing.T) {
	group := curve.Secp256k1{}
	partyIDs := []party.ID{"a", "b", "c"}
	startFunc := keygen.StartKeygen(group, partyIDs, 1, "ghost", pool.NoPool())
	_, err := startFunc([]byte("session"))
	assert.Error(t, err)
}

func TestStartKeygenRejectsBadThreshold(t *testing.T) {
	group := curve.Secp256k1{}
	partyIDs := []party.ID{"a", "b", "c"}

	_, err := keygen.StartKeygen(group, partyIDs, -1, "a", pool.NoPool())([]byte("session"))
	assert.Error(t, err)

	_, err = keygen.StartKeygen(group, partyIDs, len(partyIDs), "a", pool.NoPool())([]byte("session"))
	assert.Error(t, err)
}
