package vault

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Single-account BIP-44 path for EVM chains: m/44'/60'/0'/0/0.
const (
	purposeBIP44 = bip32.FirstHardenedChild + 44
	coinTypeEth  = bip32.FirstHardenedChild + 60
)

// NewMnemonic generates a fresh recovery phrase of 12 or 24 words
// (16 or 32 bytes of entropy).
func NewMnemonic(wordCount int) (string, error) {
	var bits int
	switch wordCount {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", fmt.Errorf("unsupported word count %d", wordCount)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizePhrase trims, lowercases, and collapses whitespace.
func NormalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(phrase))), " ")
}

// keyFromPhrase re-derives the account key from a normalized phrase. The
// phrase checksum is validated, so a mistyped word fails here.
func keyFromPhrase(phrase string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, ErrInvalidPhrase
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, ErrInvalidPhrase
	}
	child := master
	for _, index := range []uint32{purposeBIP44, coinTypeEth, bip32.FirstHardenedChild, 0, 0} {
		child, err = child.NewChildKey(index)
		if err != nil {
			return nil, ErrInvalidPhrase
		}
	}
	raw := child.Key
	// bip32 private keys carry a leading 0x00 pad byte.
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, ErrInvalidPhrase
	}
	return key, nil
}

// keyFromHex parses a private key with or without a 0x prefix.
func keyFromHex(raw string) (*ecdsa.PrivateKey, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := crypto.HexToECDSA(strings.ToLower(normalized))
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return key, nil
}

func addressOf(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

func keyHex(key *ecdsa.PrivateKey) string {
	return fmt.Sprintf("%x", crypto.FromECDSA(key))
}
