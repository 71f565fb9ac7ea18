package vault

import (
	"crypto/ecdsa"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// SetupState tracks the onboarding state machine. Transitions only move
// forward; calling an operation out of order returns ErrBadState.
type SetupState int

const (
	StateStart SetupState = iota
	StateKeyReady
	StateBackupConfirmed
	StatePasscodeChosen
	StateChallenged
	StateSealed
)

const challengeWords = 3

// pickPositions selects the challenge word indexes. Package variable so tests
// can pin the positions.
var pickPositions = func(wordCount int) []int {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	seen := map[int]bool{}
	out := make([]int, 0, challengeWords)
	for len(out) < challengeWords {
		i := r.Intn(wordCount)
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Setup walks a new key from generation or import through backup, passcode
// choice, the recovery challenge, and finally sealing into the vault.
type Setup struct {
	state      SetupState
	provenance Provenance
	phrase     string
	key        *ecdsa.PrivateKey
	passcode   string
	positions  []int
}

func NewSetup() *Setup { return &Setup{state: StateStart} }

func (s *Setup) State() SetupState { return s.state }

// Generate creates a fresh mnemonic of 12 or 24 words and derives its key.
func (s *Setup) Generate(words int) (string, error) {
	if s.state != StateStart {
		return "", ErrBadState
	}
	phrase, err := NewMnemonic(words)
	if err != nil {
		return "", err
	}
	key, err := keyFromPhrase(phrase)
	if err != nil {
		return "", err
	}
	s.phrase = phrase
	s.key = key
	s.provenance = ProvenanceCreate
	s.state = StateKeyReady
	return phrase, nil
}

// Phrase exposes the generated phrase for the backup screen.
func (s *Setup) Phrase() string { return s.phrase }

// Address previews the public address once a key is ready.
func (s *Setup) Address() string {
	if s.key == nil {
		return ""
	}
	return addressOf(s.key).Hex()
}

// ConfirmBackup acknowledges the user wrote the phrase down. Only meaningful
// for freshly generated keys.
func (s *Setup) ConfirmBackup() error {
	if s.state != StateKeyReady || s.provenance != ProvenanceCreate {
		return ErrBadState
	}
	s.state = StateBackupConfirmed
	return nil
}

// ImportPhrase accepts an existing recovery phrase. Whitespace and case are
// normalized before validation.
func (s *Setup) ImportPhrase(phrase string) error {
	if s.state != StateStart {
		return ErrBadState
	}
	normalized := NormalizePhrase(phrase)
	if n := len(strings.Fields(normalized)); n != 12 && n != 24 {
		return ErrPhraseLength
	}
	key, err := keyFromPhrase(normalized)
	if err != nil {
		return err
	}
	s.phrase = normalized
	s.key = key
	s.provenance = ProvenanceImportPhrase
	s.state = StateBackupConfirmed
	return nil
}

// ImportPrivateKey accepts a raw hex private key, with or without 0x.
func (s *Setup) ImportPrivateKey(hexKey string) error {
	if s.state != StateStart {
		return ErrBadState
	}
	key, err := keyFromHex(hexKey)
	if err != nil {
		return err
	}
	s.key = key
	s.provenance = ProvenanceImportPrivate
	s.state = StateBackupConfirmed
	return nil
}

// ChoosePasscode validates and stores the 6-digit passcode. A generated key
// must have its backup confirmed first.
func (s *Setup) ChoosePasscode(passcode, confirm string) error {
	switch s.state {
	case StateBackupConfirmed:
	case StateKeyReady:
		return ErrBackupNotConfirmed
	default:
		return ErrBadState
	}
	if !passcodeRule.MatchString(passcode) {
		return ErrPasscodeFormat
	}
	if passcode != confirm {
		return ErrPasscodeMismatch
	}
	s.passcode = passcode
	s.state = StatePasscodeChosen
	return nil
}

// ChallengePositions picks three distinct word positions for the recovery
// check, sorted ascending. Zero-based internally; the UI shows them 1-based.
// Private-key imports have no phrase; they get no positions and confirm
// through VerifyPrivateKeyChallenge instead.
func (s *Setup) ChallengePositions() ([]int, error) {
	if s.state != StatePasscodeChosen {
		return nil, ErrBadState
	}
	if s.phrase == "" {
		return nil, nil
	}
	s.positions = pickPositions(len(strings.Fields(s.phrase)))
	return append([]int(nil), s.positions...), nil
}

// VerifyChallenge re-checks the passcode and the challenged words. Word
// comparison is case and whitespace insensitive; the first miss reports its
// 1-based position.
func (s *Setup) VerifyChallenge(passcode string, answers []string) error {
	if s.state != StatePasscodeChosen || s.phrase == "" {
		return ErrBadState
	}
	if subtle.ConstantTimeCompare([]byte(passcode), []byte(s.passcode)) != 1 {
		return ErrChallengeFailed
	}
	words := strings.Fields(s.phrase)
	if len(answers) != len(s.positions) {
		return ErrChallengeFailed
	}
	for i, pos := range s.positions {
		got := strings.ToLower(strings.TrimSpace(answers[i]))
		if got != words[pos] {
			return &WordError{Position: pos + 1}
		}
	}
	s.state = StateChallenged
	return nil
}

// VerifyPrivateKeyChallenge re-checks the passcode and makes the user retype
// the imported key. The entered key is lowercased and stripped of any 0x
// prefix before the comparison, matching what the import accepted.
func (s *Setup) VerifyPrivateKeyChallenge(passcode, enteredKey string) error {
	if s.state != StatePasscodeChosen || s.phrase != "" {
		return ErrBadState
	}
	if subtle.ConstantTimeCompare([]byte(passcode), []byte(s.passcode)) != 1 {
		return ErrChallengeFailed
	}
	entered := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(enteredKey)), "0x")
	if subtle.ConstantTimeCompare([]byte(entered), []byte(keyHex(s.key))) != 1 {
		return ErrChallengeFailed
	}
	s.state = StateChallenged
	return nil
}

// Seal encrypts the secret under the chosen passcode and installs the record
// into the vault, leaving it unlocked.
func (s *Setup) Seal(v *Vault, networkID string) error {
	if s.state != StateChallenged {
		return ErrBadState
	}
	payload := secretPayload{PrivateKey: keyHex(s.key), Phrase: s.phrase}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode secret: %w", err)
	}
	blob, err := seal(plaintext, []byte(s.passcode))
	clear(plaintext)
	if err != nil {
		return err
	}
	rec := &Record{
		Version:         recordVersion,
		Address:         addressOf(s.key).Hex(),
		EncryptedSecret: blob,
		NetworkID:       networkID,
		Provenance:      s.provenance,
		CreatedAt:       time.Now().UTC(),
	}
	if err := v.install(rec, s.key); err != nil {
		return err
	}
	s.passcode = ""
	s.state = StateSealed
	return nil
}
