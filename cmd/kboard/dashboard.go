package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/kboard/internal/k8s"
	"github.com/renato0307/kboard/internal/kubeconfig"
	"github.com/renato0307/kboard/internal/logging"
	"github.com/renato0307/kboard/internal/ui"
)

func runDashboard(ctx context.Context, e *env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reloader := k8s.NewReloader(e.factory)
	done := make(chan error, 1)
	go func() { done <- reloader.Run(ctx) }()
	reloader.Select(e.config.Kubeconfig.Initial)

	model := ui.NewModel(
		k8s.NewWorkloadRepository(e.config.UI.HotspotThreshold),
		reloader,
		selections(e.store),
		ui.GetTheme(e.config.UI.Theme),
		ui.Options{Namespace: e.config.UI.Namespace, Initial: e.config.Kubeconfig.Initial},
	)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn("reloader stopped", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running dashboard: %w", runErr)
	}
	return nil
}

// selections lists the ambient kubeconfig followed by every imported one
func selections(store *kubeconfig.Store) ui.SelectionLister {
	return func() ([]ui.Selection, error) {
		entries, err := store.Registry().Entries()
		if err != nil {
			return nil, err
		}
		out := make([]ui.Selection, 0, len(entries)+1)
		out = append(out, ui.Selection{Name: k8s.DefaultSelector, Detail: "KUBECONFIG or ~/.kube/config"})
		for _, entry := range entries {
			out = append(out, ui.Selection{
				Name:   entry.Name,
				Detail: currentContext(entry.FilePath) + "  " + entry.FilePath,
			})
		}
		return out, nil
	}
}

func themeNames() []string {
	return ui.AvailableThemes()
}
