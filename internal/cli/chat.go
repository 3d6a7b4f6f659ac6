package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloo-solutions/docgpt/internal/tui"
	"github.com/spf13/cobra"
)

// ChatCmd creates the interactive terminal chat command.
func ChatCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:         "chat <file>",
		Short:       "Chat with a document in the terminal",
		Long:        "Indexes the document, then opens an interactive chat. The chat log lives for the length of the session.",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"args": "<file>"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, session, _, err := ingestFile(cmd, args[0], model)
			if err != nil {
				return err
			}
			defer app.Close()

			m := tui.New(cmd.Context(), app.Pipeline, session)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model option (label or id); defaults to the profile's first option")

	return cmd
}
