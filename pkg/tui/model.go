package tui

import (
	"time"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/ledger"
	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/watcher"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

// feeDebounce delays the fee preview until typing pauses.
const feeDebounce = 280 * time.Millisecond

// screen identifies which view is active.
type screen int

const (
	screenWelcome screen = iota
	screenBackup
	screenImportPhrase
	screenImportKey
	screenPasscode
	screenChallenge
	screenUnlock
	screenHome
	screenSend
	screenReceive
	screenActivity
	screenContacts
	screenAddContact
	screenSettings
	screenNetworks
	screenTokens
)

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time

// feeTickMsg fires when the debounce window for seq elapsed.
type feeTickMsg struct{ seq int }

// feePreviewMsg carries an estimate back from the preview command.
type feePreviewMsg struct {
	seq int
	est *tx.FeeEstimate
	err error
}

// sendResultMsg carries the broadcast outcome.
type sendResultMsg struct {
	entry ledger.Entry
	err   error
}

// unlockResultMsg carries the passcode check outcome.
type unlockResultMsg struct{ err error }

// --- Model ---

type model struct {
	session  *session.Session
	watcher  *watcher.Watcher
	engine   *tx.Engine
	prices   *prices.Service
	sub      watcher.Subscriber
	setup    *setupFlow
	state    watcher.State
	screen   screen
	width    int
	height   int
	spinner  spinner.Model
	loading  bool
	status   string
	statusIs string // "info", "warn", "err"

	// welcome / settings / list cursors
	menuIdx     int
	activityIdx int
	contactIdx  int
	networkIdx  int
	tokenIdx    int
	quitArmed   bool

	// unlock and setup inputs
	unlockInput     textinput.Model
	phraseInput     textinput.Model
	keyInput        textinput.Model
	passInputs      []textinput.Model
	challengeInputs []textinput.Model
	inputIdx        int

	// send form
	sendInputs []textinput.Model // recipient, amount
	assetIdx   int
	assets     []tx.Asset
	feeSeq     int
	fee        *tx.FeeEstimate
	feeErr     string
	sending    bool
}

func initialModel(sess *session.Session, w *watcher.Watcher, engine *tx.Engine, priceSvc *prices.Service) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	unlock := textinput.New()
	unlock.Placeholder = "6-digit passcode"
	unlock.EchoMode = textinput.EchoPassword
	unlock.CharLimit = 6
	unlock.Width = 20

	phrase := textinput.New()
	phrase.Placeholder = "recovery phrase (12 or 24 words)"
	phrase.Width = 70

	key := textinput.New()
	key.Placeholder = "private key hex (0x optional)"
	key.EchoMode = textinput.EchoPassword
	key.Width = 70

	pis := make([]textinput.Model, 2)
	for i := range pis {
		pis[i] = textinput.New()
		pis[i].EchoMode = textinput.EchoPassword
		pis[i].CharLimit = 6
		pis[i].Width = 20
	}
	pis[0].Placeholder = "choose passcode"
	pis[1].Placeholder = "confirm passcode"

	cis := make([]textinput.Model, 3)
	for i := range cis {
		cis[i] = textinput.New()
		cis[i].Width = 24
	}

	sis := make([]textinput.Model, 2)
	sis[0] = textinput.New()
	sis[0].Placeholder = "recipient 0x..."
	sis[0].Width = 46
	sis[1] = textinput.New()
	sis[1].Placeholder = "amount"
	sis[1].Width = 20

	first := screenUnlock
	if !sess.Vault.Exists() {
		first = screenWelcome
	}

	return model{
		session:         sess,
		watcher:         w,
		engine:          engine,
		prices:          priceSvc,
		sub:             w.Subscribe(),
		screen:          first,
		spinner:         s,
		loading:         true,
		unlockInput:     unlock,
		phraseInput:     phrase,
		keyInput:        key,
		passInputs:      pis,
		challengeInputs: cis,
		sendInputs:      sis,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listenForWatcher(m.sub),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	}
	if m.screen == screenUnlock {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// network is the active network shorthand.
func (m model) network() *chains.Network { return m.session.Network() }
