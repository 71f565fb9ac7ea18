package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptrail/pkg/authgate"
	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/session"
	"cryptrail/pkg/utils"
	"cryptrail/pkg/vault"
	"cryptrail/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case watcher.Event:
		cmds = append(cmds, listenForWatcher(m.sub))
		m.state = m.watcher.State()
		m.loading = false
		if msg.Type == watcher.EventDepositDetected {
			if entries, ok := msg.Data.([]ledger.Entry); ok && len(entries) > 0 {
				notice := fmt.Sprintf("%d deposits detected.", len(entries))
				if len(entries) == 1 {
					notice = fmt.Sprintf("%s %s deposit detected.", entries[0].Amount, entries[0].Symbol)
				}
				m.setStatus(notice, "info")
				cmds = append(cmds, clearStatusAfter(4*time.Second))
			}
		}

	case uiTickMsg:
		cmds = append(cmds, tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }))

	case clearStatusMsg:
		m.status = ""

	case feeTickMsg:
		// Only the newest debounce tick runs a preview.
		if m.screen == screenSend && msg.seq == m.feeSeq && !m.sending {
			recipient := strings.TrimSpace(m.sendInputs[0].Value())
			amount := strings.TrimSpace(m.sendInputs[1].Value())
			if recipient != "" && amount != "" {
				asset := m.assets[m.assetIdx]
				cmds = append(cmds, previewFeeCmd(m.engine, m.network(), m.session.Vault.Address(), recipient, amount, asset, msg.seq))
			}
		}

	case feePreviewMsg:
		if m.screen == screenSend && msg.seq == m.feeSeq {
			if msg.err != nil {
				m.fee = nil
				m.feeErr = msg.err.Error()
			} else {
				m.fee = msg.est
				m.feeErr = ""
			}
		}

	case sendResultMsg:
		m.sending = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), "err")
			cmds = append(cmds, clearStatusAfter(5*time.Second))
			break
		}
		m.resetSendForm()
		m.screen = screenActivity
		m.activityIdx = 0
		m.setStatus(fmt.Sprintf("Broadcasted %s", utils.ShortAddress(msg.entry.Hash)), "info")
		cmds = append(cmds, clearStatusAfter(4*time.Second))

	case unlockResultMsg:
		m.loading = false
		if msg.err != nil {
			m.unlockInput.SetValue("")
			m.setStatus(unlockErrorText(msg.err), "err")
			cmds = append(cmds, clearStatusAfter(3*time.Second))
			break
		}
		m.unlockInput.SetValue("")
		m.enterHome()
		m.watcher.RefreshNow()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) setStatus(text, kind string) {
	m.status = text
	m.statusIs = kind
}

func (m *model) enterHome() {
	m.screen = screenHome
	m.menuIdx = 0
	m.assets = assetOptions(m.session, m.network())
}

func (m *model) resetSendForm() {
	for i := range m.sendInputs {
		m.sendInputs[i].SetValue("")
		m.sendInputs[i].Blur()
	}
	m.assetIdx = 0
	m.fee = nil
	m.feeErr = ""
	m.feeSeq++
	m.inputIdx = 0
}

func unlockErrorText(err error) string {
	switch {
	case errors.Is(err, vault.ErrPasscodeFormat):
		return "Passcode must be exactly 6 digits"
	case errors.Is(err, vault.ErrUnlockFailed):
		return "Could not unlock with that passcode"
	case errors.Is(err, authgate.ErrAuthDenied):
		return "Authorization was denied"
	default:
		return err.Error()
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global quit, with a guard while a broadcast is still settling.
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if key == "q" && !m.inTextEntry() {
		if m.engine.InFlight() > 0 && !m.quitArmed {
			m.quitArmed = true
			m.setStatus("A transaction is still confirming. Press q again to quit anyway.", "warn")
			return m, clearStatusAfter(5 * time.Second)
		}
		return m, tea.Quit
	}
	m.quitArmed = false

	switch m.screen {
	case screenWelcome:
		return m.keyWelcome(key)
	case screenBackup:
		return m.keyBackup(key)
	case screenImportPhrase:
		return m.keyImportPhrase(msg)
	case screenImportKey:
		return m.keyImportKey(msg)
	case screenPasscode:
		return m.keyPasscode(msg)
	case screenChallenge:
		return m.keyChallenge(msg)
	case screenUnlock:
		return m.keyUnlock(msg)
	case screenHome:
		return m.keyHome(key)
	case screenSend:
		return m.keySend(msg)
	case screenReceive:
		return m.keyReceive(key)
	case screenActivity:
		return m.keyActivity(key)
	case screenContacts:
		return m.keyContacts(key)
	case screenAddContact:
		return m.keyAddContact(msg)
	case screenSettings:
		return m.keySettings(key)
	case screenNetworks:
		return m.keyNetworks(key)
	case screenTokens:
		return m.keyTokens(key)
	}
	return m, nil
}

// inTextEntry reports whether a focused text input should swallow plain keys.
func (m model) inTextEntry() bool {
	switch m.screen {
	case screenImportPhrase, screenImportKey, screenPasscode, screenChallenge, screenUnlock, screenAddContact:
		return true
	case screenSend:
		return m.sendInputs[0].Focused() || m.sendInputs[1].Focused()
	}
	return false
}

// --- Onboarding ---

func (m model) keyWelcome(key string) (tea.Model, tea.Cmd) {
	options := 3
	switch key {
	case "up", "k":
		m.menuIdx = (m.menuIdx + options - 1) % options
	case "down", "j":
		m.menuIdx = (m.menuIdx + 1) % options
	case "enter":
		switch m.menuIdx {
		case 0: // create
			flow := &setupFlow{setup: vault.NewSetup(), creating: true}
			if _, err := flow.setup.Generate(12); err != nil {
				m.setStatus(err.Error(), "err")
				return m, clearStatusAfter(3 * time.Second)
			}
			m.setup = flow
			m.screen = screenBackup
		case 1: // import phrase
			m.setup = &setupFlow{setup: vault.NewSetup()}
			m.phraseInput.SetValue("")
			m.phraseInput.Focus()
			m.screen = screenImportPhrase
			return m, textinput.Blink
		case 2: // import private key
			m.setup = &setupFlow{setup: vault.NewSetup()}
			m.keyInput.SetValue("")
			m.keyInput.Focus()
			m.screen = screenImportKey
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m model) keyBackup(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "c":
		if err := clipboard.WriteAll(m.setup.setup.Phrase()); err != nil {
			m.setStatus("Failed to copy to clipboard", "err")
		} else {
			m.setStatus("Phrase copied. Clear your clipboard after writing it down.", "warn")
		}
		return m, clearStatusAfter(3 * time.Second)
	case "enter":
		if err := m.setup.setup.ConfirmBackup(); err != nil {
			m.setStatus(err.Error(), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.startPasscode()
		return m, textinput.Blink
	case "esc":
		m.setup = nil
		m.screen = screenWelcome
	}
	return m, nil
}

func (m model) keyImportPhrase(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setup = nil
		m.phraseInput.Blur()
		m.screen = screenWelcome
		return m, nil
	case "enter":
		if err := m.setup.setup.ImportPhrase(m.phraseInput.Value()); err != nil {
			m.setStatus("That recovery phrase is not valid", "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.phraseInput.SetValue("")
		m.phraseInput.Blur()
		m.startPasscode()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.phraseInput, cmd = m.phraseInput.Update(msg)
	return m, cmd
}

func (m model) keyImportKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setup = nil
		m.keyInput.Blur()
		m.screen = screenWelcome
		return m, nil
	case "enter":
		if err := m.setup.setup.ImportPrivateKey(m.keyInput.Value()); err != nil {
			m.setStatus("That private key is not valid", "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.keyInput.SetValue("")
		m.keyInput.Blur()
		m.startPasscode()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m *model) startPasscode() {
	for i := range m.passInputs {
		m.passInputs[i].SetValue("")
		m.passInputs[i].Blur()
	}
	m.inputIdx = 0
	m.passInputs[0].Focus()
	m.screen = screenPasscode
}

func (m model) keyPasscode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setup = nil
		m.screen = screenWelcome
		return m, nil
	case "tab", "down":
		return m.focusPass((m.inputIdx + 1) % len(m.passInputs))
	case "shift+tab", "up":
		return m.focusPass((m.inputIdx + len(m.passInputs) - 1) % len(m.passInputs))
	case "enter":
		if m.inputIdx == 0 {
			return m.focusPass(1)
		}
		err := m.setup.setup.ChoosePasscode(m.passInputs[0].Value(), m.passInputs[1].Value())
		if err != nil {
			m.setStatus(passcodeErrorText(err), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		positions, err := m.setup.setup.ChallengePositions()
		if err != nil {
			m.setStatus(err.Error(), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.setup.positions = positions
		m.startChallenge()
		return m, textinput.Blink
	}
	var cmd tea.Cmd
	m.passInputs[m.inputIdx], cmd = m.passInputs[m.inputIdx].Update(msg)
	return m, cmd
}

func (m model) focusPass(idx int) (tea.Model, tea.Cmd) {
	m.passInputs[m.inputIdx].Blur()
	m.inputIdx = idx
	return m, m.passInputs[m.inputIdx].Focus()
}

func passcodeErrorText(err error) string {
	switch {
	case errors.Is(err, vault.ErrPasscodeFormat):
		return "Passcode must be exactly 6 digits"
	case errors.Is(err, vault.ErrPasscodeMismatch):
		return "Passcodes do not match"
	case errors.Is(err, vault.ErrBackupNotConfirmed):
		return "Confirm your phrase backup first"
	default:
		return err.Error()
	}
}

// startChallenge prepares the security check: word prompts for phrase-backed
// keys, a single key re-entry field for private-key imports.
func (m *model) startChallenge() {
	for i := range m.challengeInputs {
		m.challengeInputs[i].SetValue("")
		m.challengeInputs[i].Blur()
		m.challengeInputs[i].EchoMode = textinput.EchoNormal
		if i < len(m.setup.positions) {
			m.challengeInputs[i].Placeholder = fmt.Sprintf("word #%d", m.setup.positions[i]+1)
		}
	}
	if len(m.setup.positions) == 0 {
		m.challengeInputs[0].Placeholder = "private key"
		m.challengeInputs[0].EchoMode = textinput.EchoPassword
	}
	m.inputIdx = 0
	m.challengeInputs[0].Focus()
	m.screen = screenChallenge
}

// challengeFields is how many inputs the current security check uses.
func (m model) challengeFields() int {
	if len(m.setup.positions) == 0 {
		return 1
	}
	return len(m.setup.positions)
}

func (m model) keyChallenge(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenPasscode
		return m.focusPass(0)
	case "tab", "down":
		return m.focusChallenge((m.inputIdx + 1) % m.challengeFields())
	case "shift+tab", "up":
		return m.focusChallenge((m.inputIdx + m.challengeFields() - 1) % m.challengeFields())
	case "enter":
		if m.inputIdx < m.challengeFields()-1 {
			return m.focusChallenge(m.inputIdx + 1)
		}
		if len(m.setup.positions) == 0 {
			if err := m.setup.setup.VerifyPrivateKeyChallenge(m.passInputs[0].Value(), m.challengeInputs[0].Value()); err != nil {
				m.setStatus("Private key security confirmation failed", "err")
				return m, clearStatusAfter(3 * time.Second)
			}
			return m.completeSetup()
		}
		answers := make([]string, len(m.setup.positions))
		for i := range answers {
			answers[i] = m.challengeInputs[i].Value()
		}
		if err := m.setup.setup.VerifyChallenge(m.passInputs[0].Value(), answers); err != nil {
			var wordErr *vault.WordError
			if errors.As(err, &wordErr) {
				m.setStatus(fmt.Sprintf("Word #%d is incorrect", wordErr.Position), "err")
			} else {
				m.setStatus("Security check failed", "err")
			}
			return m, clearStatusAfter(3 * time.Second)
		}
		return m.completeSetup()
	}
	var cmd tea.Cmd
	m.challengeInputs[m.inputIdx], cmd = m.challengeInputs[m.inputIdx].Update(msg)
	return m, cmd
}

func (m model) focusChallenge(idx int) (tea.Model, tea.Cmd) {
	m.challengeInputs[m.inputIdx].Blur()
	m.inputIdx = idx
	return m, m.challengeInputs[m.inputIdx].Focus()
}

func (m model) completeSetup() (tea.Model, tea.Cmd) {
	if err := m.session.CompleteSetup(m.setup.setup, chains.Default().ID); err != nil {
		m.setStatus(err.Error(), "err")
		return m, clearStatusAfter(4 * time.Second)
	}
	m.setup = nil
	for i := range m.passInputs {
		m.passInputs[i].SetValue("")
	}
	m.enterHome()
	m.watcher.RefreshNow()
	m.setStatus("Wallet ready", "info")
	return m, clearStatusAfter(3*time.Second)
}

// --- Unlock ---

func (m model) keyUnlock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.unlockInput.Focused() {
		m.unlockInput.Focus()
	}
	switch msg.String() {
	case "enter":
		m.loading = true
		return m, tea.Batch(unlockCmd(m.session, m.unlockInput.Value()), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.unlockInput, cmd = m.unlockInput.Update(msg)
	return m, cmd
}

// --- Home ---

func (m model) keyHome(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "s":
		m.assets = assetOptions(m.session, m.network())
		m.resetSendForm()
		m.screen = screenSend
		return m, m.sendInputs[0].Focus()
	case "r":
		m.screen = screenReceive
	case "a":
		m.activityIdx = 0
		m.screen = screenActivity
	case "b":
		m.contactIdx = 0
		m.screen = screenContacts
	case "g":
		m.screen = screenSettings
		m.menuIdx = 0
	case "n":
		m.networkIdx = m.activeNetworkIdx()
		m.screen = screenNetworks
	case "R":
		m.loading = true
		m.watcher.RefreshNow()
		m.setStatus("Refreshing...", "info")
		return m, tea.Batch(m.spinner.Tick, clearStatusAfter(2*time.Second))
	case "L":
		m.session.Vault.Lock()
		m.screen = screenUnlock
		m.unlockInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m model) activeNetworkIdx() int {
	active := chains.Active()
	for i, n := range active {
		if n.ID == m.network().ID {
			return i
		}
	}
	return 0
}

// --- Send ---

func (m model) keySend(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.resetSendForm()
		m.enterHome()
		return m, nil
	case "tab", "down":
		return m.focusSend((m.inputIdx + 1) % 2)
	case "shift+tab", "up":
		return m.focusSend((m.inputIdx + 1) % 2)
	case "ctrl+a":
		m.assetIdx = (m.assetIdx + 1) % len(m.assets)
		m.fee = nil
		m.feeErr = ""
		m.feeSeq++
		return m, tea.Tick(feeDebounce, func(time.Time) tea.Msg { return feeTickMsg{seq: m.feeSeq} })
	case "enter":
		if m.inputIdx == 0 {
			return m.focusSend(1)
		}
		signer, err := m.session.Vault.Signer()
		if err != nil {
			m.setStatus("Wallet is locked", "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		recipient := strings.TrimSpace(m.sendInputs[0].Value())
		amountStr := strings.TrimSpace(m.sendInputs[1].Value())
		asset := m.assets[m.assetIdx]
		m.sending = true
		m.loading = true
		return m, tea.Batch(
			sendCmd(m.engine, m.network(), signer, recipient, amountStr, asset),
			m.spinner.Tick,
		)
	}

	var cmd tea.Cmd
	m.sendInputs[m.inputIdx], cmd = m.sendInputs[m.inputIdx].Update(msg)

	// Debounce a fee preview behind the keystroke.
	m.feeSeq++
	seq := m.feeSeq
	tick := tea.Tick(feeDebounce, func(time.Time) tea.Msg { return feeTickMsg{seq: seq} })
	return m, tea.Batch(cmd, tick)
}

func (m model) focusSend(idx int) (tea.Model, tea.Cmd) {
	m.sendInputs[m.inputIdx].Blur()
	m.inputIdx = idx
	return m, m.sendInputs[m.inputIdx].Focus()
}

// --- Receive ---

func (m model) keyReceive(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "backspace":
		m.enterHome()
	case "c":
		if err := clipboard.WriteAll(m.session.Vault.Address()); err != nil {
			m.setStatus("Failed to copy to clipboard", "err")
		} else {
			m.setStatus("Address copied to clipboard", "info")
		}
		return m, clearStatusAfter(2 * time.Second)
	case "p":
		if err := clipboard.WriteAll(paymentRequest(m.session, m.network())); err != nil {
			m.setStatus("Failed to copy to clipboard", "err")
		} else {
			m.setStatus("Payment request copied to clipboard", "info")
		}
		return m, clearStatusAfter(2 * time.Second)
	}
	return m, nil
}

// --- Activity ---

func (m model) keyActivity(key string) (tea.Model, tea.Cmd) {
	entries := m.session.Ledger.Entries()
	switch key {
	case "esc", "backspace":
		m.enterHome()
	case "up", "k":
		if m.activityIdx > 0 {
			m.activityIdx--
		}
	case "down", "j":
		if m.activityIdx < len(entries)-1 {
			m.activityIdx++
		}
	case "o":
		if m.activityIdx < len(entries) {
			entry := entries[m.activityIdx]
			if entry.Hash != "" && entry.ExplorerTxBaseURL != "" {
				if err := openBrowser(entry.ExplorerTxBaseURL + entry.Hash); err != nil {
					m.setStatus("Failed to open browser", "err")
				} else {
					m.setStatus("Opened in browser", "info")
				}
				return m, clearStatusAfter(2 * time.Second)
			}
		}
	}
	return m, nil
}

// --- Contacts ---

func (m model) keyContacts(key string) (tea.Model, tea.Cmd) {
	contacts := m.session.Contacts.All()
	switch key {
	case "esc", "backspace":
		m.enterHome()
	case "up", "k":
		if m.contactIdx > 0 {
			m.contactIdx--
		}
	case "down", "j":
		if m.contactIdx < len(contacts)-1 {
			m.contactIdx++
		}
	case "n":
		m.challengeInputs[0].Placeholder = "name"
		m.challengeInputs[1].Placeholder = "address 0x..."
		m.challengeInputs[0].EchoMode = textinput.EchoNormal
		m.challengeInputs[0].SetValue("")
		m.challengeInputs[1].SetValue("")
		m.inputIdx = 0
		m.challengeInputs[0].Focus()
		m.screen = screenAddContact
		return m, textinput.Blink
	case "d":
		if m.contactIdx < len(contacts) {
			if err := m.session.Contacts.Remove(contacts[m.contactIdx].Address); err != nil {
				m.setStatus(err.Error(), "err")
				return m, clearStatusAfter(3 * time.Second)
			}
			if m.contactIdx > 0 {
				m.contactIdx--
			}
		}
	case "enter":
		if m.contactIdx < len(contacts) {
			// Prefill the send form with this contact.
			m.assets = assetOptions(m.session, m.network())
			m.resetSendForm()
			m.sendInputs[0].SetValue(contacts[m.contactIdx].Address)
			m.inputIdx = 1
			m.screen = screenSend
			return m, m.sendInputs[1].Focus()
		}
	}
	return m, nil
}

func (m model) keyAddContact(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenContacts
		return m, nil
	case "tab", "down":
		m.challengeInputs[m.inputIdx].Blur()
		m.inputIdx = (m.inputIdx + 1) % 2
		return m, m.challengeInputs[m.inputIdx].Focus()
	case "enter":
		if m.inputIdx == 0 {
			m.challengeInputs[0].Blur()
			m.inputIdx = 1
			return m, m.challengeInputs[1].Focus()
		}
		name := m.challengeInputs[0].Value()
		address := m.challengeInputs[1].Value()
		if err := m.session.Contacts.Add(name, address); err != nil {
			m.setStatus(contactErrorText(err), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.contactIdx = 0
		m.screen = screenContacts
		m.setStatus("Contact saved", "info")
		return m, clearStatusAfter(2 * time.Second)
	}
	var cmd tea.Cmd
	m.challengeInputs[m.inputIdx], cmd = m.challengeInputs[m.inputIdx].Update(msg)
	return m, cmd
}

func contactErrorText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrContactName):
		return "A name is required"
	case errors.Is(err, ledger.ErrContactAddress):
		return "That address is not valid"
	case errors.Is(err, ledger.ErrContactExists):
		return "That address is already saved"
	default:
		return err.Error()
	}
}

// --- Settings ---

func (m model) keySettings(key string) (tea.Model, tea.Cmd) {
	options := 4 // auth gate, tracked tokens, lock, reset
	switch key {
	case "esc", "backspace":
		m.enterHome()
	case "up", "k":
		m.menuIdx = (m.menuIdx + options - 1) % options
	case "down", "j":
		m.menuIdx = (m.menuIdx + 1) % options
	case "enter":
		switch m.menuIdx {
		case 0:
			return m.toggleAuthGate()
		case 1:
			m.tokenIdx = 0
			m.screen = screenTokens
		case 2:
			m.session.Vault.Lock()
			m.screen = screenUnlock
			m.unlockInput.Focus()
			return m, textinput.Blink
		case 3:
			if err := m.session.Reset(); err != nil {
				m.setStatus(err.Error(), "err")
				return m, clearStatusAfter(3 * time.Second)
			}
			m.screen = screenWelcome
			m.menuIdx = 0
			m.setStatus("Wallet erased", "warn")
			return m, clearStatusAfter(3 * time.Second)
		}
	}
	return m, nil
}

func (m model) toggleAuthGate() (tea.Model, tea.Cmd) {
	if m.session.Gate.Enabled() {
		if err := m.session.Gate.Disable(); err != nil {
			m.setStatus(err.Error(), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.setStatus("Approval gate disabled", "info")
		return m, clearStatusAfter(2 * time.Second)
	}
	ctx, cancel := contextWithGateTimeout()
	defer cancel()
	if err := m.session.Gate.Enable(ctx, m.session.Vault.Address()); err != nil {
		if errors.Is(err, authgate.ErrAuthDenied) {
			m.setStatus("Enrollment was not approved", "err")
		} else {
			m.setStatus(err.Error(), "err")
		}
		return m, clearStatusAfter(3 * time.Second)
	}
	m.setStatus("Approval gate enabled", "info")
	return m, clearStatusAfter(2 * time.Second)
}

// --- Network picker ---

func (m model) keyNetworks(key string) (tea.Model, tea.Cmd) {
	active := chains.Active()
	switch key {
	case "esc", "backspace":
		m.enterHome()
	case "up", "k":
		if m.networkIdx > 0 {
			m.networkIdx--
		}
	case "down", "j":
		if m.networkIdx < len(active)-1 {
			m.networkIdx++
		}
	case "enter":
		if err := m.session.SwitchNetwork(active[m.networkIdx].ID); err != nil {
			m.setStatus(err.Error(), "err")
			return m, clearStatusAfter(3 * time.Second)
		}
		m.enterHome()
		m.loading = true
		m.watcher.RefreshNow()
		m.setStatus(fmt.Sprintf("Switched to %s", active[m.networkIdx].Name), "info")
		return m, tea.Batch(m.spinner.Tick, clearStatusAfter(2*time.Second))
	}
	return m, nil
}

// --- Tracked tokens ---

func (m model) keyTokens(key string) (tea.Model, tea.Cmd) {
	catalog := chains.Catalog()
	switch key {
	case "esc", "backspace":
		m.screen = screenSettings
	case "up", "k":
		if m.tokenIdx > 0 {
			m.tokenIdx--
		}
	case "down", "j":
		if m.tokenIdx < len(catalog)-1 {
			m.tokenIdx++
		}
	case "enter", " ":
		id := catalog[m.tokenIdx].ID
		if err := m.session.ToggleTracked(id); err != nil {
			if errors.Is(err, session.ErrLastTracked) {
				m.setStatus("At least one token must stay tracked", "err")
			} else {
				m.setStatus(err.Error(), "err")
			}
			return m, clearStatusAfter(3 * time.Second)
		}
		m.watcher.RefreshNow()
	}
	return m, nil
}
