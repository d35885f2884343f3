package wallet

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ed25519 single-key authentication scheme byte, appended to the public key
// before hashing into the authentication key.
const authKeyScheme = 0x00

// Account holds an ed25519 keypair and the address derived from it.
// The address is the authentication key: sha3-256(pubkey || 0x00).
type Account struct {
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
	address string
}

// NewAccountFromSeed builds an account from a 32-byte hex seed, with or
// without a 0x prefix.
func NewAccountFromSeed(seedHex string) (*Account, error) {
	seedHex = strings.TrimPrefix(seedHex, "0x")
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{authKeyScheme})
	addr := h.Sum(nil)

	return &Account{
		priv:    priv,
		pub:     pub,
		address: "0x" + hex.EncodeToString(addr),
	}, nil
}

// Address returns the 0x-prefixed hex account address.
func (a *Account) Address() string { return a.address }

// PublicKeyHex returns the 0x-prefixed hex public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.pub)
}

func (a *Account) sign(message []byte) []byte {
	return ed25519.Sign(a.priv, message)
}

// Verify checks a signature produced by this account over message.
func (a *Account) Verify(message, sig []byte) bool {
	return ed25519.Verify(a.pub, message, sig)
}
