package tui

import (
	"fmt"
	"strings"
	"time"

	"cryptrail/pkg/chains"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	var content string
	switch m.screen {
	case screenWelcome:
		content = m.viewWelcome()
	case screenBackup:
		content = m.viewBackup()
	case screenImportPhrase:
		content = m.viewInputScreen("Import Recovery Phrase", m.phraseInput.View(), "enter: import • esc: back")
	case screenImportKey:
		content = m.viewInputScreen("Import Private Key", m.keyInput.View(), "enter: import • esc: back")
	case screenPasscode:
		content = m.viewPasscode()
	case screenChallenge:
		content = m.viewChallenge()
	case screenUnlock:
		content = m.viewUnlock()
	case screenHome:
		content = m.viewHome()
	case screenSend:
		content = m.viewSend()
	case screenReceive:
		content = m.viewReceive()
	case screenActivity:
		content = m.viewActivity()
	case screenContacts:
		content = m.viewContacts()
	case screenAddContact:
		content = m.viewAddContact()
	case screenSettings:
		content = m.viewSettings()
	case screenNetworks:
		content = m.viewNetworks()
	case screenTokens:
		content = m.viewTokens()
	}

	if m.status != "" {
		style := infoStyle
		switch m.statusIs {
		case "err":
			style = errStyle
		case "warn":
			style = warnStyle
		}
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", style.Render(m.status))
	}
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m model) header(title string) string {
	return titleStyle.Render("Cryptrail " + Version + " • " + title)
}

func (m model) viewWelcome() string {
	options := []string{"Create a new wallet", "Import recovery phrase", "Import private key"}
	var rows []string
	for i, opt := range options {
		if i == m.menuIdx {
			rows = append(rows, selectedStyle.Render("> "+opt))
		} else {
			rows = append(rows, subtleStyle.Render("  "+opt))
		}
	}
	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	footer := subtleStyle.Render("↑/↓: choose • enter: select • q: quit")
	return lipgloss.JoinVertical(lipgloss.Center, m.header("Welcome"), "", boxStyle.Render(body), "", footer)
}

func (m model) viewBackup() string {
	words := strings.Fields(m.setup.setup.Phrase())
	var rows []string
	for i := 0; i < len(words); i += 4 {
		end := i + 4
		if end > len(words) {
			end = len(words)
		}
		var cells []string
		for j := i; j < end; j++ {
			cells = append(cells, fmt.Sprintf("%2d. %-10s", j+1, words[j]))
		}
		rows = append(rows, strings.Join(cells, "  "))
	}
	warning := warnStyle.Render("Write these words down in order. Anyone holding them controls the wallet.")
	footer := subtleStyle.Render("enter: I wrote them down • c: copy • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Recovery Phrase"), "", warning, "",
		phraseStyle.Render(strings.Join(rows, "\n")), "", footer)
}

func (m model) viewInputScreen(title, input, help string) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header(title), "", boxStyle.Render(input), "", subtleStyle.Render(help))
}

func (m model) viewPasscode() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		"Choose a 6-digit passcode:", m.passInputs[0].View(), "",
		"Confirm it:", m.passInputs[1].View())
	footer := subtleStyle.Render("tab: next field • enter: continue • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center, m.header("Passcode"), "", boxStyle.Render(body), "", footer)
}

func (m model) viewChallenge() string {
	var rows []string
	if len(m.setup.positions) == 0 {
		rows = append(rows, "Confirm your import. Re-enter the private key:")
		rows = append(rows, "")
		rows = append(rows, m.challengeInputs[0].View())
	} else {
		rows = append(rows, "Prove you saved the phrase. Enter the requested words:")
		rows = append(rows, "")
		for i, pos := range m.setup.positions {
			rows = append(rows, fmt.Sprintf("Word #%d:", pos+1))
			rows = append(rows, m.challengeInputs[i].View())
		}
	}
	footer := subtleStyle.Render("tab: next field • enter: verify • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Security Check"), "", boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)), "", footer)
}

func (m model) viewUnlock() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Wallet %s", utils.ShortAddress(m.session.Vault.Address())), "",
		m.unlockInput.View())
	if m.loading {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", m.spinner.View()+" unlocking...")
	}
	footer := subtleStyle.Render("enter: unlock • ctrl+c: quit")
	return lipgloss.JoinVertical(lipgloss.Center, m.header("Unlock"), "", boxStyle.Render(body), "", footer)
}

func (m model) viewHome() string {
	network := m.network()
	assets := m.assets
	if len(assets) == 0 {
		assets = assetOptions(m.session, network)
	}

	headline := fmt.Sprintf("%s on %s", utils.ShortAddress(m.session.Vault.Address()), network.Name)
	total := portfolioUsd(m.prices, network, m.state, assets)
	totalLine := infoStyle.Render("Portfolio " + utils.FormatUsd(total))
	if m.state.Stale {
		totalLine += " " + warnStyle.Render("(stale)")
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-8s %14s %14s", "ASSET", "BALANCE", "VALUE"))
	for _, asset := range assets {
		amount := amountOf(m.state, asset.Key)
		rows = append(rows, fmt.Sprintf("%-8s %14s %14s",
			asset.Symbol, utils.FormatAmount(amount),
			utils.FormatUsd(usdValue(m.prices, network, asset, amount))))
	}
	table := boxStyle.Render(strings.Join(rows, "\n"))

	gas := ""
	if m.state.GasPrice != nil && len(m.state.GasHistory) > 1 {
		graph := asciigraph.Plot(m.state.GasHistory,
			asciigraph.Height(4),
			asciigraph.Width(40),
			asciigraph.Caption(fmt.Sprintf("Gas %.1f Gwei", m.state.GasHistory[len(m.state.GasHistory)-1])),
		)
		gas = subtleStyle.Render(graph)
	}

	var spin string
	if m.loading {
		spin = m.spinner.View() + " refreshing"
	} else if !m.state.UpdatedAt.IsZero() {
		spin = subtleStyle.Render("updated " + m.state.UpdatedAt.Format(time.Kitchen))
	}

	footer := subtleStyle.Render("s: send • r: receive • a: activity • b: contacts • n: network • g: settings • R: refresh • L: lock • q: quit")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Home"), "", headline, totalLine, "", table, gas, spin, "", footer)
}

func (m model) viewSend() string {
	asset := m.assets[m.assetIdx]
	network := m.network()

	var fee string
	switch {
	case m.sending:
		fee = m.spinner.View() + " broadcasting..."
	case m.feeErr != "":
		fee = errStyle.Render(m.feeErr)
	case m.fee != nil:
		usd := usdValue(m.prices, network, tx.Asset{Key: "native", Symbol: network.Symbol}, m.fee.FeeNative)
		fee = infoStyle.Render(fmt.Sprintf("Estimated fee: %s %s (%s) • gas %d",
			utils.FormatAmount(m.fee.FeeNative), network.Symbol, utils.FormatUsd(usd), m.fee.GasLimit))
	default:
		fee = subtleStyle.Render("Fee preview appears as you type")
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Asset: %s (ctrl+a to change) • balance %s", asset.Symbol, utils.FormatAmount(amountOf(m.state, asset.Key))),
		"",
		"Recipient:", m.sendInputs[0].View(),
		"Amount:", m.sendInputs[1].View(),
		"",
		fee)
	footer := subtleStyle.Render("tab: next field • enter: send • esc: cancel")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Send on "+network.Name), "", boxStyle.Render(body), "", footer)
}

func (m model) viewReceive() string {
	address := m.session.Vault.Address()
	qr := addressQR(address)
	body := lipgloss.JoinVertical(lipgloss.Center, qr, address)
	footer := subtleStyle.Render("c: copy address • p: copy payment request • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Receive on "+m.network().Name), "", body, "", footer)
}

func (m model) viewActivity() string {
	entries := m.session.Ledger.Entries()
	if len(entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Center,
			m.header("Activity"), "", subtleStyle.Render("No activity yet."), "",
			subtleStyle.Render("esc: back"))
	}

	var rows []string
	for i, entry := range entries {
		arrow := "→"
		if entry.Direction == "deposit" {
			arrow = "←"
		}
		line := fmt.Sprintf("%s %8s %-6s %-20s %s",
			arrow, entry.Amount, entry.Symbol,
			entry.Status, entry.CreatedAt.Local().Format("Jan 02 15:04"))
		if i == m.activityIdx {
			rows = append(rows, selectedStyle.Render(line))
		} else {
			rows = append(rows, line)
		}
	}
	footer := subtleStyle.Render("↑/↓: select • o: open in explorer • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Activity"), "", boxStyle.Render(strings.Join(rows, "\n")), "", footer)
}

func (m model) viewContacts() string {
	contacts := m.session.Contacts.All()
	var body string
	if len(contacts) == 0 {
		body = subtleStyle.Render("No contacts saved.")
	} else {
		var rows []string
		for i, contact := range contacts {
			line := fmt.Sprintf("%-16s %s", contact.Name, utils.ShortAddress(contact.Address))
			if i == m.contactIdx {
				rows = append(rows, selectedStyle.Render(line))
			} else {
				rows = append(rows, line)
			}
		}
		body = boxStyle.Render(strings.Join(rows, "\n"))
	}
	footer := subtleStyle.Render("n: new • d: delete • enter: send to contact • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center, m.header("Contacts"), "", body, "", footer)
}

func (m model) viewAddContact() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		"Name:", m.challengeInputs[0].View(), "",
		"Address:", m.challengeInputs[1].View())
	footer := subtleStyle.Render("tab: next field • enter: save • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center, m.header("New Contact"), "", boxStyle.Render(body), "", footer)
}

func (m model) viewSettings() string {
	gateState := "off"
	if m.session.Gate.Enabled() {
		gateState = "on"
	}
	options := []string{
		fmt.Sprintf("Approval gate for sends: %s", gateState),
		"Tracked tokens",
		"Lock wallet",
		errStyle.Render("Erase wallet from this device"),
	}
	var rows []string
	for i, opt := range options {
		if i == m.menuIdx {
			rows = append(rows, selectedStyle.Render("> "+opt))
		} else {
			rows = append(rows, "  "+opt)
		}
	}
	footer := subtleStyle.Render("↑/↓: choose • enter: select • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Settings"), "", boxStyle.Render(strings.Join(rows, "\n")), "", footer)
}

func (m model) viewNetworks() string {
	var rows []string
	for i, network := range chains.Active() {
		marker := "  "
		if network.ID == m.network().ID {
			marker = infoStyle.Render("* ")
		}
		line := marker + network.Name
		if i == m.networkIdx {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}
	footer := subtleStyle.Render("↑/↓: choose • enter: switch • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Networks"), "", boxStyle.Render(strings.Join(rows, "\n")), "", footer)
}

func (m model) viewTokens() string {
	tracked := map[string]bool{}
	for _, id := range m.session.TrackedTokenIDs() {
		tracked[id] = true
	}
	var rows []string
	for i, token := range chains.Catalog() {
		mark := "[ ]"
		if tracked[token.ID] {
			mark = infoStyle.Render("[x]")
		}
		note := ""
		if len(token.Contracts) == 0 {
			note = subtleStyle.Render(" (no EVM contract)")
		}
		line := fmt.Sprintf("%s %-6s %s%s", mark, token.Symbol, token.Name, note)
		if i == m.tokenIdx {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}
	footer := subtleStyle.Render("↑/↓: choose • enter/space: toggle • esc: back")
	return lipgloss.JoinVertical(lipgloss.Center,
		m.header("Tracked Tokens"), "", boxStyle.Render(strings.Join(rows, "\n")), "", footer)
}
