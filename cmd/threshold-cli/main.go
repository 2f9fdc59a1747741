// Command threshold-cli drives the CGGMP'21 threshold-ECDSA protocols in
// this module end to end, entirely in-process: every party in a run is a
// goroutine wired to every other through internal/test's in-memory
// Network, since there is no standalone transport layer to dial out to.
// It exists to exercise keygen, refresh, and sign the way a user would,
// not to be a production signing service.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/cobaltss/cggmp21/internal/test"
	"github.com/cobaltss/cggmp21/pkg/ecdsa"
	"github.com/cobaltss/cggmp21/pkg/math/curve"
	"github.com/cobaltss/cggmp21/pkg/party"
	"github.com/cobaltss/cggmp21/pkg/pool"
	"github.com/cobaltss/cggmp21/pkg/protocol"
	"github.com/cobaltss/cggmp21/protocols/cmp/config"
	"github.com/cobaltss/cggmp21/protocols/cmp/keygen"
	"github.com/cobaltss/cggmp21/protocols/cmp/refresh"
	"github.com/cobaltss/cggmp21/protocols/cmp/sign"
)

var (
	numParties int
	threshold  int
	message    string
)

func main() {
	root := &cobra.Command{
		Use:   "threshold-cli",
		Short: "Drive CGGMP'21 threshold-ECDSA keygen, refresh, and signing",
	}
	root.PersistentFlags().IntVarP(&numParties, "parties", "n", 3, "number of parties")
	root.PersistentFlags().IntVarP(&threshold, "threshold", "t", 1, "signing threshold (t+1 parties required)")

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Run distributed key generation and print the resulting public key",
		RunE:  runKeygen,
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run a keygen followed by an aux-info/key-refresh round",
		RunE:  runRefresh,
	}

	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "Run keygen followed by a full threshold signature over --message",
		RunE:  runSign,
	}
	signCmd.Flags().StringVarP(&message, "message", "m", "hello, threshold", "message to sign")

	root.AddCommand(keygenCmd, refreshCmd, signCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runKeygen(*cobra.Command, []string) error {
	group := curve.Secp256k1{}
	configs, err := runDistributedKeygen(group, numParties, threshold)
	if err != nil {
		return err
	}
	printConfigs(configs)
	return nil
}

func runRefresh(*cobra.Command, []string) error {
	group := curve.Secp256k1{}
	configs, err := runDistributedKeygen(group, numParties, threshold)
	if err != nil {
		return err
	}

	oldKey := configs[configs[0].ID].PublicPoint()

	partyIDs := make([]party.ID, 0, len(configs))
	for id := range configs {
		partyIDs = append(partyIDs, id)
	}
	net := test.NewNetwork(party.NewIDSlice(partyIDs))
	pl := pool.NoPool()

	refreshed, err := runOverNetwork(net, partyIDs, func(id party.ID) protocol.StartFunc {
		return refresh.StartRefresh(configs[id], pl)
	})
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	results := make(map[party.ID]*config.Config, len(refreshed))
	for id, r := range refreshed {
		results[id] = r.(*config.Config)
	}

	newKey := results[partyIDs[0]].PublicPoint()
	if !oldKey.Equal(newKey) {
		return fmt.Errorf("refresh: public key changed, expected it to stay fixed")
	}

	fmt.Println("refresh preserved the combined public key:")
	printConfigs(results)
	return nil
}

func runSign(*cobra.Command, []string) error {
	group := curve.Secp256k1{}
	configs, err := runDistributedKeygen(group, numParties, threshold)
	if err != nil {
		return err
	}

	partyIDs := make([]party.ID, 0, len(configs))
	for id := range configs {
		partyIDs = append(partyIDs, id)
	}
	signers := partyIDs[:threshold+1]

	digest := sha256.Sum256([]byte(message))

	net := test.NewNetwork(party.NewIDSlice(signers))
	pl := pool.NoPool()

	results, err := runOverNetwork(net, signers, func(id party.ID) protocol.StartFunc {
		return sign.StartSign(configs[id], signers, digest[:], pl)
	})
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	sig := results[signers[0]].(*ecdsa.Signature)
	publicKey := configs[signers[0]].PublicPoint()
	if !sig.Verify(publicKey, digest[:]) {
		return fmt.Errorf("sign: produced an invalid signature")
	}

	rBytes, _ := sig.R.MarshalBinary()
	sBytes, _ := sig.S.MarshalBinary()
	fmt.Printf("message:    %q\n", message)
	fmt.Printf("signers:    %v\n", signers)
	fmt.Printf("signature:  r=%s s=%s\n", hex.EncodeToString(rBytes), hex.EncodeToString(sBytes))
	fmt.Println("verified against the combined public key")
	return nil
}

// runDistributedKeygen runs keygen.StartKeygen for n fresh parties over
// group, with the given threshold, and returns every party's resulting
// Config keyed by ID.
func runDistributedKeygen(group curve.Curve, n, threshold int) (map[party.ID]*config.Config, error) {
	partyIDs := test.PartyIDs(n)
	net := test.NewNetwork(partyIDs)
	pl := pool.NoPool()

	raw, err := runOverNetwork(net, partyIDs, func(id party.ID) protocol.StartFunc {
		return keygen.StartKeygen(group, partyIDs, threshold, id, pl)
	})
	if err != nil {
		return nil, fmt.Errorf("keygen: %w", err)
	}

	configs := make(map[party.ID]*config.Config, len(raw))
	for id, r := range raw {
		configs[id] = r.(*config.Config)
	}
	return configs, nil
}

// runOverNetwork spins up one protocol.MultiHandler per party in parties,
// starting each from start(id), drives every handler to completion
// concurrently over net, and returns each party's result keyed by ID.
func runOverNetwork(net *test.Network, parties []party.ID, start func(party.ID) protocol.StartFunc) (map[party.ID]interface{}, error) {
	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		results = make(map[party.ID]interface{}, len(parties))
		errs    = make(map[party.ID]error, len(parties))
	)

	wg.Add(len(parties))
	for _, id := range parties {
		id := id
		go func() {
			defer wg.Done()
			h, err := protocol.NewMultiHandler(start(id), nil)
			if err != nil {
				mtx.Lock()
				errs[id] = err
				mtx.Unlock()
				return
			}
			if err := test.HandlerLoop(id, h, net); err != nil {
				mtx.Lock()
				errs[id] = err
				mtx.Unlock()
				return
			}
			result, err := h.Result()
			mtx.Lock()
			defer mtx.Unlock()
			if err != nil {
				errs[id] = err
				return
			}
			results[id] = result
		}()
	}
	wg.Wait()

	for id, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("party %q: %w", id, err)
		}
	}
	return results, nil
}

func printConfigs(configs map[party.ID]*config.Config) {
	var first *config.Config
	for _, c := range configs {
		first = c
		break
	}
	if first == nil {
		return
	}
	publicKey, _ := first.PublicPoint().MarshalBinary()
	fmt.Printf("parties:    %d (threshold %d)\n", len(configs), first.Threshold)
	fmt.Printf("public key: %s\n", hex.EncodeToString(publicKey))
}
