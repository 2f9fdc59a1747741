package sign_test

import (
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltss/cggmp21/internal/test"
	"github.com/cobaltss/cggmp21/pkg/ecdsa"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
	"github.com/cobaltss/cggmp21/protocols/cmp/keygen"
	"github.com/cobaltss/cggmp21/protocols/cmp/sign"
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

func TestSignProducesVerifiableSignature(t *testing.T) {
	const n, threshold = 4, 1
	configs := keygenConfigs(t, n, threshold)

	var signers []party.ID
	for id := range configs {
		signers = append(signers, id)
		if len(signers) == threshold+1 {
			break
		}
	}

	digest := sha256.Sum256([]byte("a message worth signing"))
	raw := runOverNetwork(t, signers, func(id party.ID) protocol.StartFunc {
		return sign.StartSign(configs[id], signers, digest[:], pool.NoPool())
	})

	publicKey := configs[signers[0]].PublicPoint()
	for id, r := range raw {
		sig, ok := r.(*ecdsa.Signature)
		require.True(t, ok, "party %q result", id)
		assert.True(t, sig.Verify(publicKey, digest[:]))
	}
}

func TestSignRejectsEmptyMessage(t *testing.T) {
	const n, threshold = 3, 1
	configs := keygenConfigs(t, n, threshold)

	var signers []party.ID
	for id := range configs {
		signers = append(signers, id)
	}

	startFunc := sign.StartSign(configs[signers[0]], signers, nil, pool.NoPool())
	_, err := startFunc([]byte("session"))
	assert.Error(t, err)
}

func TestSignRejectsInsufficientSigners(t *testing.T) {
	const n, threshold = 3, 2
	configs := keygenConfigs(t, n, threshold)

	var signers []party.ID
	for id := range configs {
		signers = append(signers, id)
		break
	}

	startFunc := sign.StartSign(configs[signers[0]], signers, []byte("msg"), pool.NoPool())
	_, err := startFunc([]byte("session"))
	assert.Error(t, err)
}
