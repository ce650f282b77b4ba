package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"study-assistant/internal/api"
	"study-assistant/internal/chromemdb"
	"study-assistant/internal/config"
	"study-assistant/internal/db"
	"study-assistant/internal/helper"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/parser"
	"study-assistant/internal/rag"
	"study-assistant/internal/service"
	"study-assistant/internal/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	filePath := flag.String("file", "", "Path to a document to ask about from the command line")
	query := flag.String("query", "", "Question to answer from the document given with -file")
	dryRun := flag.Bool("dry-run", false, "Print the document chunks and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	setLogLevel(cfg.Log.Level)
	log.Debug().Interface("config", cfg.Redacted()).Msg("Loaded config")

	if *query != "" && *filePath == "" {
		log.Fatal().Msg("Please provide the document to search using the -file flag")
	}
	if *filePath != "" {
		if err := askDocument(context.Background(), cfg, *filePath, *query, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Error answering query")
		}
		return
	}

	if err := serve(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := llmservice.NewRegistry(cfg)
	if err != nil {
		return err
	}
	defer registry.Close()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	passages, err := chromemdb.NewVectorDBManager(cfg.VectorDB, registry.Embedder)
	if err != nil {
		return fmt.Errorf("vector db: %w", err)
	}
	if err := passages.Import(); err != nil {
		log.Warn().Err(err).Msg("Could not import passage index")
	}
	defer func() {
		if err := passages.Export(); err != nil {
			log.Error().Err(err).Msg("Could not export passage index")
		}
	}()

	assistant := service.NewAssistant(cfg, store, registry, passages, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err := assistant.Sweep(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial session sweep failed")
	}
	go assistant.RunJanitor(ctx, cfg.Store.SweepInterval)
	router := api.SetupRouter(cfg.Server, api.NewHandler(assistant, cfg.Server.MaxUploadBytes))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Msg("Study assistant listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Store.Driver {
	case "memory", "":
		return session.NewMemoryStore(cfg.Store.TTL), nil
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return session.NewRedisStore(client, cfg.Redis.Prefix, cfg.Store.TTL), nil
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		dbInstance := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, dbInstance); err != nil {
			dbInstance.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
		return db.NewPostgresStore(dbInstance, cfg.Store.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store.Driver)
	}
}

// askDocument answers query from the file at path without starting the server.
func askDocument(ctx context.Context, cfg *config.Config, path, query string, dryRun bool) error {
	text, err := parser.LoadFile(path)
	if err != nil {
		return err
	}

	if dryRun {
		log.Info().Msg("Parsed content")
		helper.PrettyPrint(rag.ChunkText(text, cfg.RAG.MaxChunkTokens))
		return nil
	}
	if query == "" {
		return errors.New("please provide a question using the -query flag")
	}

	registry, err := llmservice.NewRegistry(cfg)
	if err != nil {
		return err
	}
	defer registry.Close()

	r := rag.NewRAG(registry.Embedder, registry.QA, cfg.RAG)
	response, err := r.Answer(ctx, text, query)
	if err != nil {
		return err
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Context)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Answer)
	return nil
}
