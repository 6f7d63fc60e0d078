package cmd

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/lawchat-be/config"
	"github.com/tieubaoca/lawchat-be/database"
	"github.com/tieubaoca/lawchat-be/handler"
	"github.com/tieubaoca/lawchat-be/service"
	"github.com/tieubaoca/lawchat-be/types"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the legal assistant server",
	Long:  `Starts a server that answers legal questions over the ingested corpus.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		// All external clients are constructed once here and passed down;
		// nothing in the pipeline lazily initializes shared state.
		llm, embedder, err := buildAI(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}

		var conversations database.ConversationStore
		if cfg.MongoConfig.URI != "" {
			mongoClient, err := database.NewMongoClient(cfg.MongoConfig)
			if err != nil {
				log.Fatalf("Failed to create MongoDB client: %v", err)
			}
			if err := mongoClient.Ping(context.Background(), nil); err != nil {
				log.Fatalf("Failed to connect to MongoDB: %v", err)
			}
			dbName := cfg.MongoConfig.Database
			if dbName == "" {
				dbName = "lawchat"
			}
			conversations = database.NewMongoConversationStore(mongoClient.Database(dbName))
		}

		var webSearch *service.SearchService
		if cfg.SearchConfig.APIKey != "" {
			webSearch = service.NewSearchService(cfg.SearchConfig.APIKey, cfg.SearchConfig.EngineID)
		}

		documentService := service.NewDocumentService(types.DocumentServiceConfig{
			MaxChunkSize: cfg.PipelineConfig.MaxChunkSize,
			OverlapSize:  cfg.PipelineConfig.OverlapSize,
		})
		classifier := service.NewClassifierService(llm, cfg.PipelineConfig.DomainKeywords)
		ingestService := service.NewIngestService(documentService, embedder, weaviateDb, cfg.PipelineConfig.EmbedBatchSize)
		ragService := service.NewRAGService(classifier, llm, embedder, weaviateDb, webSearch, cfg.PipelineConfig.TopK)
		streamService := service.NewStreamService(ragService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler(cfg.CORSAllowedOrigin)
		chatHandler := handler.NewChatHandler(ragService, conversations)
		streamHandler := handler.NewStreamHandler(streamService, cfg.CORSAllowedOrigin)
		searchHandler := handler.NewSearchHandler(ragService)
		ingestHandler := handler.NewIngestHandler(ingestService, cfg.CorpusDir)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		router.GET("/healthz", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/chat", chatHandler.HandleChat)
			apiV1.GET("/chat/stream", streamHandler.HandleStream)
			apiV1.POST("/documents/search", searchHandler.HandleSearch)
		}

		adminV1 := router.Group("/admin/api/v1")
		{
			adminV1.POST("/ingest", ingestHandler.HandleIngest)
		}

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
