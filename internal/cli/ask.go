package cli

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docgpt/internal/service"
	"github.com/spf13/cobra"
)

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		model      string
		showChunks bool
	)

	cmd := &cobra.Command{
		Use:         "ask <file> <question>",
		Short:       "Ask one question about a document",
		Long:        "Indexes the document and streams the answer to stdout as it is generated.",
		Args:        cobra.MinimumNArgs(2),
		Annotations: map[string]string{"args": "<file> <question>"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, session, _, err := ingestFile(cmd, args[0], model)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			question := strings.Join(args[1:], " ")

			if showChunks {
				retriever, ok := session.IndexedRetriever(session.Document())
				if ok {
					chunks, err := retriever.Retrieve(cmd.Context(), question, app.Pipeline.TopK())
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.ErrOrStderr(), service.DescribeChunks(chunks))
				}
			}

			sink := service.SinkFuncs{
				Token: func(token string) { fmt.Fprint(out, token) },
				End:   func(string) { fmt.Fprintln(out) },
			}
			if _, err := app.Pipeline.Ask(cmd.Context(), session, question, sink); err != nil {
				fmt.Fprintln(out)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model option (label or id); defaults to the profile's first option")
	cmd.Flags().BoolVar(&showChunks, "show-chunks", false, "Print the retrieved chunks to stderr before answering")

	return cmd
}
