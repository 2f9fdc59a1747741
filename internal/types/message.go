package types

import "io"

// SigningMessage is the message being signed, wrapped so it can be absorbed
// into a session's execution ID alongside the Config and party set: binding
// the message into the SSID means every zero-knowledge proof in the signing
// protocol is implicitly bound to it too.
type SigningMessage []byte

// Domain implements hash.WriterToWithDomain.
func (SigningMessage) Domain() string { return "SigningMessage" }

// WriteTo implements hash.WriterToWithDomain.
func (m SigningMessage) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m)
	return int64(n), err
}
