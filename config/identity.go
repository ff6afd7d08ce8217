package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var errIdentityInvalid = errors.New("core.identity must be a hex encoded 32 byte seed")

// Identity is the hex encoded ed25519 seed used to sign and verify session tokens.
type Identity string

func NewIdentity() Identity {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		panic(err)
	}

	return Identity(hex.EncodeToString(seed))
}

func (i Identity) Valid() bool {
	_, err := i.PrivateKey()
	return err == nil
}

func (i Identity) PrivateKey() (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(string(i))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errIdentityInvalid, err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, errIdentityInvalid
	}

	return ed25519.NewKeyFromSeed(seed), nil
}
