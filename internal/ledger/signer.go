package ledger

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"dbd/internal/providers"
	"dbd/internal/structures"
)

// SignerInterface is the server-identity extension point. Links are
// valid without a signature; the chain batcher signs when a signer is
// available and moves on when it is not.
type SignerInterface interface {
	Sign(data []byte) []byte
	PublicKey() []byte
}

type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner loads the server key from chain.signingKeyFile, or
// generates an ephemeral one when no file is configured.
func NewSigner(conf *structures.Config, logger providers.Logger) (SignerInterface, error) {
	if conf.Chain.SigningKeyFile == "" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate server key: %w", err)
		}
		logger.Warnf(providers.TypeApp, "no signing key configured, using ephemeral server identity")
		return &Ed25519Signer{priv: priv, pub: pub}, nil
	}

	seed, err := os.ReadFile(conf.Chain.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	if len(seed) < ed25519.SeedSize {
		return nil, fmt.Errorf("signing key too short: need %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	return &Ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func (s *Ed25519Signer) Sign(data []byte) []byte {
	return ed25519.Sign(s.priv, data)
}

func (s *Ed25519Signer) PublicKey() []byte {
	return append([]byte(nil), s.pub...)
}
