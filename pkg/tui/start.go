package tui

import (
	"fmt"
	"os"

	"cryptrail/pkg/prices"
	"cryptrail/pkg/session"
	"cryptrail/pkg/tx"
	"cryptrail/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func Start(sess *session.Session, w *watcher.Watcher, engine *tx.Engine, priceSvc *prices.Service, version string) {
	Version = version
	p := tea.NewProgram(
		initialModel(sess, w, engine, priceSvc),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
