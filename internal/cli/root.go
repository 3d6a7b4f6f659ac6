// Package cli implements the docgpt command line.
package cli

import (
	"fmt"

	"github.com/cloo-solutions/docgpt/internal/config"
	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCmd builds the docgpt command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "docgpt",
		Short: "Chat with your documents",
		Long: `DocGPT answers questions about an uploaded document (pdf, txt, docx)
using retrieval-augmented generation.

Settings come from DOCGPT_* environment variables (a .env file is read
when present). Flags override the environment.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("profile", "", "Profile: document (OpenAI) or private (Ollama)")
	flags.String("cache-root", "", "Directory holding uploaded files and cached embeddings")
	flags.Int("chunk-size", 0, "Maximum chunk length in characters")
	flags.Int("chunk-overlap", 0, "Characters shared by consecutive chunks")
	flags.Int("top-k", 0, "Chunks retrieved per question")
	flags.Float32("temperature", 0, "Sampling temperature for answers")
	flags.String("storage", "", "Storage backend: local or s3")
	flags.String("index", "", "Vector index backend: memory or pgvector")
	AddHelpJSONFlag(root)

	root.AddCommand(ServeCmd())
	root.AddCommand(IngestCmd())
	root.AddCommand(AskCmd())
	root.AddCommand(ChatCmd())

	return root
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies changed flags onto cfg. Unchanged flags keep the
// environment value.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "profile":
			cfg.Profile = domain.Profile(f.Value.String())
		case "cache-root":
			cfg.CacheRoot = f.Value.String()
		case "chunk-size":
			cfg.ChunkSize, err = fs.GetInt(f.Name)
		case "chunk-overlap":
			cfg.ChunkOverlap, err = fs.GetInt(f.Name)
		case "top-k":
			cfg.TopK, err = fs.GetInt(f.Name)
		case "temperature":
			cfg.Temperature, err = fs.GetFloat32(f.Name)
		case "storage":
			cfg.StorageBackend = f.Value.String()
		case "index":
			cfg.IndexBackend = f.Value.String()
		case "port":
			cfg.Port = f.Value.String()
		}
	})
	if err != nil {
		return fmt.Errorf("invalid flag value: %w", err)
	}
	return nil
}
