package round

import "github.com/cobaltss/cggmp21/pkg/party"

// Output is the terminal Session returned once a protocol completes
// successfully. Result holds the protocol-specific value (a *config.Config,
// an ecdsa.Signature, ...); callers type-assert it themselves.
type Output struct {
	*Helper
	Result interface{}
}

func (o *Output) Number() Number                     { return o.FinalRoundNumber() + 1 }
func (o *Output) MessageContent() Content             { return nil }
func (o *Output) VerifyMessage(Message) error         { return nil }
func (o *Output) StoreMessage(Message) error          { return nil }
func (o *Output) Finalize(chan<- *Message) (Session, error) { return o, nil }

// Abort is the terminal Session returned once a protocol fails. Err is the
// reason, Culprits the parties responsible (if any could be identified).
type Abort struct {
	*Helper
	Err      error
	Culprits []party.ID
}

func (a *Abort) Number() Number                     { return a.FinalRoundNumber() + 1 }
func (a *Abort) MessageContent() Content             { return nil }
func (a *Abort) VerifyMessage(Message) error         { return nil }
func (a *Abort) StoreMessage(Message) error          { return nil }
func (a *Abort) Finalize(chan<- *Message) (Session, error) { return a, nil }
