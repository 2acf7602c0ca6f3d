package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/repository/unitofwork"
	"soulscript-chat-be/internal/service"
	"soulscript-chat-be/pkg/database"
	"soulscript-chat-be/pkg/embedding"
)

// Seeds the predefined feature flags and, with -docs, ingests every .txt and
// .md file of a directory into the context store of one group.
func main() {
	docsDir := flag.String("docs", "", "directory of .txt/.md documents to ingest")
	group := flag.String("group", "default", "group scope for ingested documents")
	flag.Parse()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer sysLogger.Sync()

	log.Println("Seeding predefined feature flags...")
	flags := service.NewFeatureFlagService(uowFactory, cfg.Chat.FeatureFlagsTTL, sysLogger)
	created, err := flags.SeedPredefined(ctx)
	if err != nil {
		log.Fatalf("Error seeding feature flags: %v", err)
	}
	log.Printf("Feature flags ready (%d created)", created)

	if *docsDir == "" {
		return
	}

	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	} else {
		embedder = embedding.NewOpenAIProvider(cfg.Ai.OpenAIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingDims)
	}
	// Ingest runs inline here, so no publisher is needed.
	documents := service.NewDocumentService(uowFactory, nil, embedder, sysLogger)

	entries, err := os.ReadDir(*docsDir)
	if err != nil {
		log.Fatalf("Error reading %s: %v", *docsDir, err)
	}

	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".txt" && ext != ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(*docsDir, entry.Name()))
		if err != nil {
			log.Printf("Error reading %s: %v", entry.Name(), err)
			continue
		}

		title := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		chunks, err := documents.Ingest(ctx, dto.PublishIngestDocumentMessage{
			GroupScope: *group,
			Title:      title,
			Content:    string(content),
		})
		if err != nil {
			log.Printf("Error ingesting %s: %v", entry.Name(), err)
			continue
		}
		log.Printf("Ingested %s into %q (%d chunks)", title, *group, chunks)
	}

	log.Println("Seeding completed!")
}
