package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/lawchat-be/config"
	"github.com/tieubaoca/lawchat-be/database"
	"github.com/tieubaoca/lawchat-be/service"
	"github.com/tieubaoca/lawchat-be/types"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a reference corpus into the vector index",
	Long: `Loads text documents from a directory, splits them into overlapping
chunks, embeds them and writes them into the vector index. Re-ingesting
identical content overwrites existing entries instead of duplicating them.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		reindex, _ := cmd.Flags().GetBool("reindex")

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if dir == "" {
			dir = cfg.CorpusDir
		}
		if dir == "" {
			log.Fatal("No corpus directory given, use --dir or corpus_dir in config")
		}

		_, embedder, err := buildAI(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}
		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}

		ctx := context.Background()
		if reindex {
			if err := weaviateDb.DeleteCollection(ctx); err != nil {
				log.Printf("Failed to delete collection (may not exist yet): %v", err)
			}
		}

		documentService := service.NewDocumentService(types.DocumentServiceConfig{
			MaxChunkSize: cfg.PipelineConfig.MaxChunkSize,
			OverlapSize:  cfg.PipelineConfig.OverlapSize,
		})
		ingestService := service.NewIngestService(documentService, embedder, weaviateDb, cfg.PipelineConfig.EmbedBatchSize)

		result := ingestService.IngestDirectory(ctx, dir)
		if !result.Success {
			log.Fatalf("Ingestion failed: %s", result.Message)
		}
		log.Printf("Ingested %d chunks from %d pages in %dms", result.TotalChunks, result.TotalPages, result.ProcessingTimeMs)

		count, err := weaviateDb.Stats(ctx)
		if err != nil {
			log.Printf("Failed to read index stats: %v", err)
			return
		}
		log.Printf("Index now holds %d entries", count)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("dir", "d", "", "Directory with corpus files (.txt, .md)")
	ingestCmd.Flags().BoolP("reindex", "r", false, "Delete and recreate the collection before ingesting")
}
