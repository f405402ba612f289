package identity

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// ErrEmailRequired is returned when derivation is attempted without an email.
var ErrEmailRequired = errors.New("email is required")

// Identity is the deterministic owner key pair derived from a voter email.
// It is recomputed on demand and never persisted; only the owner address
// ever leaves this package in stored form.
type Identity struct {
	Email        string
	OwnerAddress common.Address

	key *ecdsa.PrivateKey
}

// Normalize collapses differently-cased spellings of the same address onto
// one canonical form before hashing.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Derive maps an email to its owner key pair. The key material is the
// keccak256 digest of the normalized email bytes, so the mapping is a pure
// function: the same email always yields the same owner for the lifetime of
// the system.
func Derive(email string) (Identity, error) {
	normalized := Normalize(email)
	if normalized == "" {
		return Identity{}, ErrEmailRequired
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(normalized))

	key, err := ethcrypto.ToECDSA(h.Sum(nil))
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Email:        normalized,
		OwnerAddress: ethcrypto.PubkeyToAddress(key.PublicKey),
		key:          key,
	}, nil
}

// SignHash produces a 65-byte [R || S || V] secp256k1 signature over a
// 32-byte digest with the owner key.
func (id Identity) SignHash(digest []byte) ([]byte, error) {
	if id.key == nil {
		return nil, errors.New("identity has no key")
	}
	return ethcrypto.Sign(digest, id.key)
}
