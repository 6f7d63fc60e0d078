package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/lawchat-be/config"
	"github.com/tieubaoca/lawchat-be/service"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lawchat-be",
	Short: "Legal assistant backend",
	Long: `Backend for a domain-restricted legal question-answering assistant.

It ingests a reference corpus into a vector index and answers questions
by combining retrieved passages with a language model, with citations
attached to every sourced answer.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}

// buildAI constructs the configured language model and embedder. One
// provider serves both capabilities.
func buildAI(cfg *config.Config) (service.LanguageModel, service.Embedder, error) {
	ai := cfg.AIConfig
	switch ai.Provider {
	case "", "openai":
		svc := service.NewOpenAIService(ai.Endpoint, ai.OpenAIAPIKey, ai.Model, ai.EmbeddingModel)
		return svc, svc, nil
	case "gemini":
		keys := strings.Split(ai.GeminiAPIKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		svc, err := service.NewGeminiService(keys, ai.Model, ai.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return svc, svc, nil
	}
	return nil, nil, fmt.Errorf("unknown ai provider: %s", ai.Provider)
}
