package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// The passcode space is only 10^6, so the KDF cost is the entire defense
// against offline brute force of a stolen blob. N=2^17 (~128MB, noticeable
// but tolerable unlock latency) keeps a full sweep of the passcode space
// expensive while still fitting low-memory devices.
const (
	scryptN      = 1 << 17
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// sealedBlob is the at-rest format. The KDF parameters ride along so they can
// be tuned later without breaking old vaults.
type sealedBlob struct {
	KDF        string `json:"kdf"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// seal encrypts plaintext under the passcode with scrypt + AES-256-GCM.
func seal(plaintext, passcode []byte) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key, err := scrypt.Key(passcode, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer clear(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	blob := sealedBlob{
		KDF:        "scrypt",
		N:          scryptN,
		R:          scryptR,
		P:          scryptP,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return json.Marshal(blob)
}

// unseal decrypts a sealed blob. Every failure mode collapses into one error
// so callers cannot distinguish a wrong passcode from corrupt data.
func unseal(data, passcode []byte) ([]byte, error) {
	var blob sealedBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, ErrUnlockFailed
	}
	if blob.KDF != "scrypt" || blob.N <= 1 || blob.R <= 0 || blob.P <= 0 {
		return nil, ErrUnlockFailed
	}

	salt, err := base64.StdEncoding.DecodeString(blob.Salt)
	if err != nil {
		return nil, ErrUnlockFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(blob.Nonce)
	if err != nil || len(nonce) != nonceLen {
		return nil, ErrUnlockFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(blob.CipherText)
	if err != nil {
		return nil, ErrUnlockFailed
	}

	key, err := scrypt.Key(passcode, salt, blob.N, blob.R, blob.P, scryptKeyLen)
	if err != nil {
		return nil, ErrUnlockFailed
	}
	defer clear(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, ErrUnlockFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrUnlockFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.New("create cipher")
	}
	return cipher.NewGCM(block)
}
