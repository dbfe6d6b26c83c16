package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

// keyMap defines the key bindings for the classify view. Theme bindings are
// built at startup from the configured themes, one per shortcut.
type keyMap struct {
	themes []key.Binding
	skip   key.Binding
	undo   key.Binding
	help   key.Binding
	quit   key.Binding
}

func newKeyMap(themes []models.Theme) keyMap {
	bindings := make([]key.Binding, 0, len(themes))
	for _, th := range themes {
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(th.Shortcut),
			key.WithHelp(th.Shortcut, th.Name),
		))
	}
	return keyMap{
		themes: bindings,
		skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip"),
		),
		undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.skip, k.undo, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.themes,
		{k.skip, k.undo},
		{k.help, k.quit},
	}
}
