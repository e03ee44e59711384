package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/tui"
)

func newWizardCmd(opts *rootOptions) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Fill in the quote wizard from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.IntakeBaseURL()
			}
			// The success view shows the link, so nothing is opened here.
			client := leadclient.New(url, cfg.DestinationPhone, nil, leadclient.WithSource("terminal"))

			final, err := tea.NewProgram(tui.NewModel(client), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("wizard: %w", err)
			}
			if m, ok := final.(tui.Model); ok {
				if out := m.Outcome(); out != nil && !out.Persisted {
					return errNotPersisted
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "intake base URL (default from config)")
	return cmd
}
