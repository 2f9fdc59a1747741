package refresh_test

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
	"github.com/cobaltss/cggmp21/protocols/cmp/refresh"
)

func runOverNetwork(t *testing.T, ids []party.ID, start func(party.ID) protocol.StartFunc) map[party.ID]interface{} {
	t.Helper()
	net := test.NewNetwork(party.NewIDSlice(ids))
	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		results = make(map[party.ID]interface{}, len(ids))
	)
	wg.Add(len(ids))
	for _, id := range ids {
		id := id
		go func() {
			defer wg.Done()
			h, err := protocol.NewMultiHandler(start(id), nil)
			require.NoError(t, err)
			require.NoError(t, test.HandlerLoop(id, h, net))
			result, err := h.Result()
			require.NoError(t, err)
			mtx.Lock()
			results[id] = result
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func keygenConfigs(t *testing.T, n, threshold int) map[party.ID]*config.Config {
	t.Helper()
	group := curve.Secp256k1{}
	partyIDs := test.PartyIDs(n)
	raw := runOverNetwork(t, partyIDs, func(id party.ID) protocol.StartFunc {
		return keygen.StartKeygen(group, partyIDs, threshold, id, pool.NoPool())
	})
	configs := make(map[party.ID]*config.Config, n)
	for id, r := range raw {
		configs[id] = r.(*config.Config)
	}
	return configs
}

func TestRefreshPreservesPublicKeyAndRerandomizesShares(t *testing.T) {
	const n, threshold = 4, 1
	before := keygenConfigs(t, n, threshold)

	var ids []party.ID
	for id := range before {
		ids = append(ids, id)
	}

	raw := runOverNetwork(t, ids, func(id party.ID) protocol.StartFunc {
		return refresh.StartRefresh(before[id], pool.NoPool())
	})

	after := make(map[party.ID]*config.Config, n)
	for id, r := range raw {
		cfg, ok := r.(*config.Config)
		require.True(t, ok)
		require.NoError(t, cfg.Validate())
		after[id] = cfg
	}

	var anyID party.ID
	for id := range before {
		anyID = id
		break
	}
	oldPublicKey := before[anyID].PublicPoint()

	for id, cfg := range after {
		assert.True(t, oldPublicKey.Equal(cfg.PublicPoint()), "refresh must not move the combined public key")
		assert.False(t, before[id].ECDSA.Equal(cfg.ECDSA), "refresh must rerandomize every party's secret share")
		assert.Equal(t, before[id].RID, cfg.RID)
	}
}

func TestStartRefreshRejectsNilConfig(t *testing.T) {
	startFunc := refresh.StartRefresh(nil, pool.NoPool())
	_, err := startFunc([]byte("session"))
	assert.Error(t, err)
}
