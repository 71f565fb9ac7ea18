package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhrase means the recovery phrase did not re-derive a valid key.
	ErrInvalidPhrase = errors.New("seed phrase is invalid")

	// ErrPhraseLength rejects imports that are not 12 or 24 words, even when
	// the checksum would pass for another standard length.
	ErrPhraseLength = errors.New("seed phrase must contain exactly 12 or 24 words")

	// ErrInvalidPrivateKey means the pasted key is not a valid secp256k1 key.
	ErrInvalidPrivateKey = errors.New("private key is invalid")

	// ErrPasscodeFormat means the passcode is not exactly 6 decimal digits.
	ErrPasscodeFormat = errors.New("passcode must be exactly 6 digits")

	// ErrPasscodeMismatch means the confirmation did not match.
	ErrPasscodeMismatch = errors.New("passcodes do not match")

	// ErrBackupNotConfirmed means the caller skipped the offline backup step.
	ErrBackupNotConfirmed = errors.New("recovery phrase backup not confirmed")

	// ErrChallengeFailed covers the non-positional security-check failures:
	// passcode re-entry or private-key re-entry mismatch.
	ErrChallengeFailed = errors.New("security check failed")

	// ErrUnlockFailed is the uniform failure for a wrong passcode or a corrupt
	// blob. The two cases are deliberately indistinguishable.
	ErrUnlockFailed = errors.New("unlock failed")

	// ErrLocked means the operation needs an unlocked signer.
	ErrLocked = errors.New("wallet is locked")

	// ErrNoVault means no vault record exists on this device.
	ErrNoVault = errors.New("no vault")

	// ErrBadState means a setup transition was attempted out of order.
	ErrBadState = errors.New("setup step out of order")
)

// WordError reports which challenge word was wrong, by 1-based position in
// the phrase.
type WordError struct {
	Position int
}

func (e *WordError) Error() string {
	return fmt.Sprintf("word #%d is incorrect", e.Position)
}
