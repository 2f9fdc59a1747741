package keygen

import (
	"github.com/cobaltss/cggmp21/internal/round"
)

// session bundles the context that stays fixed for an entire key generation
// run. Every round embeds *session directly rather than the previous
// round's struct, the same discipline protocols/cmp/sign follows, so that a
// round's BroadcastRound methods are never accidentally promoted into a
// later round that doesn't expect them.
type session struct {
	*round.Helper
}
