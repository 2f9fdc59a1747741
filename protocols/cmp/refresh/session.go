package refresh

import (
	"github.com/cobaltss/cggmp21/internal/round"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
)

// session bundles the context that stays fixed for an entire refresh run:
// the old Config every party starts from, which must keep the same
// combined public key at the end. Every round embeds *session directly
// rather than the previous round's struct, so that a round's BroadcastRound
// methods are never accidentally promoted into a later round that doesn't
// expect them.
type session struct {
	*round.Helper

	Old *config.Config
}
