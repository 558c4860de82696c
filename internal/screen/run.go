package screen

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/amped/internal/datastore"
	"github.com/Makepad-fr/amped/internal/logging"
	"github.com/Makepad-fr/amped/internal/store/liststore"
)

// Run shows the screen until the user quits or ctx ends. The subscription
// is torn down before Run returns.
func Run(ctx context.Context, data datastore.Service, gate Gate, log *logging.Logger) error {
	store := liststore.New()
	ctrl := NewController(store, data, gate, log)
	defer ctrl.Stop()

	changes, unwatch := store.Watch()
	defer unwatch()

	m := NewModel(ctx, ctrl, gate, store, changes)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
