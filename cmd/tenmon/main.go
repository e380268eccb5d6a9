// Package main is the Tenmon CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/catalog"
	"github.com/hyperjump/tenmon/internal/cli"
	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/knowledge"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/server"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
	"github.com/hyperjump/tenmon/internal/training"
	"github.com/hyperjump/tenmon/internal/watcher"
	"github.com/hyperjump/tenmon/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tenmon/config.yaml"

const noMatchText = "I don't have specific information about that topic in my training data."

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used, so that "tenmon server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "train":
		runTrain()
	case "query":
		runQuery()
	case "search":
		runSearch()
	case "models":
		runModels()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tenmon version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (queries, stage progress, artifact reloads)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var watchCancel context.CancelFunc
	if cfg.Watch.Enabled {
		watchOpts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		idx := components.Index
		gen := components.Generator
		watchSvc := watcher.NewWatcher(cfg.Storage.IndexDir, func() {
			if !idx.Load() {
				logger.Warn("index reload failed, keeping current snapshot")
				return
			}
			if err := gen.ReloadKnowledgeBase(cfg.Storage.IndexDir); err != nil {
				logger.Warn("knowledge base reload failed", zap.Error(err))
			}
			logger.Info("index artifacts reloaded", zap.Int("documents", idx.Size()))
		}, watchOpts...)
		var watchCtx context.Context
		watchCtx, watchCancel = context.WithCancel(context.Background())
		defer watchCancel()
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(server.Deps{
		Generator:    components.Generator,
		Orchestrator: components.Orchestrator,
		Catalog:      components.Catalog,
		Store:        components.Store,
		Index:        components.Index,
		Sources:      components.Sources,
		Config:       cfg,
		Logger:       logger,
		Version:      version,
	})
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchCancel != nil {
		watchCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// splitSources parses a comma-separated -sources flag into source names.
func splitSources(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runTrain() {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline in-process)")
	modelName := fs.String("model", "", "model name (default from config)")
	sourcesFlag := fs.String("sources", "", "comma-separated source names (default: all configured)")
	pollInterval := fs.Duration("poll", 500*time.Millisecond, "status poll interval")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	spec := models.TrainingJobSpec{ModelName: *modelName, Sources: splitSources(*sourcesFlag)}

	if *serverURL != "" {
		jobID, err := submitViaHTTP(*serverURL, spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Submit failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Job submitted: %s\n", jobID)
		job, err := pollJob(*pollInterval, func() (*models.TrainingJob, error) {
			return jobStatusViaHTTP(*serverURL, jobID)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Poll failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteJob(os.Stdout, job, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		if job.Status == models.JobFailed {
			os.Exit(1)
		}
		return
	}

	// In-process pipeline (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	jobID := components.Orchestrator.Submit(spec)
	fmt.Printf("Job submitted: %s\n", jobID)
	job, err := pollJob(*pollInterval, func() (*models.TrainingJob, error) {
		return components.Orchestrator.Status(jobID)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Poll failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteJob(os.Stdout, job, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if job.Status == models.JobFailed {
		os.Exit(1)
	}
}

// pollJob polls status until the job reaches a terminal state, echoing each
// step change on the way.
func pollJob(interval time.Duration, status func() (*models.TrainingJob, error)) (*models.TrainingJob, error) {
	lastStep := ""
	for {
		job, err := status()
		if err != nil {
			return nil, err
		}
		if job.CurrentStep != lastStep {
			fmt.Println(cli.JobProgressLine(job))
			lastStep = job.CurrentStep
		}
		if job.Status.Terminal() {
			return job, nil
		}
		time.Sleep(interval)
	}
}

func submitViaHTTP(serverURL string, spec models.TrainingJobSpec) (string, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	resp, err := http.Post(serverURL+"/api/v1/training/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.JobID, nil
}

func jobStatusViaHTTP(serverURL, jobID string) (*models.TrainingJob, error) {
	resp, err := http.Get(serverURL + "/api/v1/training/jobs/" + url.PathEscape(jobID))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var job models.TrainingJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &job, nil
}

// buildQueryText joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQueryText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runQuery() {
	queryArgs := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer in-process)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(queryArgs)

	question := buildQueryText(fs.Args())
	if question == "" {
		fmt.Println("Usage: tenmon query [flags] <question>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		answer, err := queryViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, answer, noMatchText, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	answer, err := components.Generator.Answer(context.Background(), question)
	if err != nil && err != retrieval.ErrNoMatch {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, noMatchText, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// queryViaHTTP asks the server; a nil answer with nil error means no match.
func queryViaHTTP(serverURL, question string) (*models.RetrievalAnswer, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Matched           bool    `json:"matched"`
		Response          string  `json:"response"`
		Confidence        float64 `json:"confidence"`
		Source            string  `json:"source"`
		MatchedSimilarity float64 `json:"matched_similarity"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Matched {
		return nil, nil
	}
	return &models.RetrievalAnswer{
		Text:              out.Response,
		Confidence:        out.Confidence,
		Source:            out.Source,
		MatchedSimilarity: out.MatchedSimilarity,
	}, nil
}

func runSearch() {
	searchArgs := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = search the catalog directly)")
	recordType := fs.String("type", "", "filter by record type (launch, rocket, apod, ...)")
	limit := fs.Int("limit", 10, "number of results")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(searchArgs)

	queryStr := buildQueryText(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: tenmon search [flags] <terms>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		response, err := catalogSearchViaHTTP(*serverURL, queryStr, *recordType, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteCatalogResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	q := models.CatalogQuery{Query: queryStr, Type: *recordType, Limit: *limit}
	if err := q.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		os.Exit(1)
	}
	response, err := components.Catalog.Search(context.Background(), q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCatalogResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func catalogSearchViaHTTP(serverURL, query, recordType string, limit int) (*models.CatalogResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if recordType != "" {
		params.Set("type", recordType)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := http.Get(serverURL + "/api/v1/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.CatalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runModels() {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read the store directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var records []*models.TrainedModelRecord
	if *serverURL != "" {
		records, err = modelsViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List models failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		records, err = store.ListModels(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "List models failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteModels(os.Stdout, records, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func modelsViaHTTP(serverURL string) ([]*models.TrainedModelRecord, error) {
	resp, err := http.Get(serverURL + "/api/v1/models")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var records []*models.TrainedModelRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return records, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = inspect local state)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]any
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx := context.Background()
		stats := components.Index.Stats()
		modelRecords, err := components.Store.ListModels(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List models failed: %v\n", err)
			os.Exit(1)
		}
		storedRecords, err := components.Store.DatasetCount(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]any{
			"service":             "tenmon",
			"index_tier":          string(components.Index.Tier()),
			"index_size":          stats.TotalDocuments,
			"embedding_dimension": stats.EmbeddingDimension,
			"index_ready":         stats.IndexReady,
			"models":              len(modelRecords),
			"stored_records":      storedRecords,
			"knowledge_base_size": components.Generator.KnowledgeBaseSize(),
		}
		if count, err := components.Catalog.DocCount(); err == nil {
			status["catalog_documents"] = count
		}
		if diskBytes, err := storage.DiskUsageBytes(
			cfg.Storage.DatabasePath,
			cfg.Storage.CatalogIndexPath,
			cfg.Storage.IndexDir,
		); err == nil {
			status["disk_usage_bytes"] = diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		for _, key := range []string{
			"index_tier", "index_size", "embedding_dimension", "index_ready",
			"stored_records", "catalog_documents", "knowledge_base_size",
			"models", "jobs", "disk_usage_bytes",
		} {
			if v, ok := status[key]; ok {
				fmt.Printf("%-20s %v\n", key+":", v)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]any, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

// Components holds initialized services.
type Components struct {
	Store        *storage.SQLiteStorage
	Index        *knowledge.Index
	Catalog      *catalog.Catalog
	Generator    *retrieval.Generator
	Sources      []source.Source
	Orchestrator *training.Orchestrator
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index := knowledge.NewIndex(cfg, logger)
	if index.Load() {
		logger.Info("index artifacts loaded",
			zap.Int("documents", index.Size()),
			zap.String("tier", string(index.Tier())))
	} else {
		logger.Info("no index artifacts yet; run a training job to build them")
	}

	cat, err := catalog.New(cfg.Storage.CatalogIndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	generator := retrieval.NewGenerator(index, cfg.Retrieval, logger)
	if err := generator.ReloadKnowledgeBase(cfg.Storage.IndexDir); err != nil {
		logger.Debug("no knowledge base yet", zap.Error(err))
	}

	sources := []source.Source{
		source.NewNASAClient(cfg.Sources, logger),
		source.NewSpaceXClient(cfg.Sources, logger,
			source.WithPayloadLimit(cfg.Training.PayloadLimit),
			source.WithStarlinkLimit(cfg.Training.StarlinkLimit)),
	}

	orchestrator := training.NewOrchestrator(training.Deps{
		Index:     index,
		Generator: generator,
		Catalog:   cat,
		Store:     store,
		Sources:   sources,
		Fallback:  source.NewStaticSource(),
		IndexDir:  cfg.Storage.IndexDir,
		ModelName: cfg.Training.ModelName,
		Logger:    logger,
	})

	return &Components{
		Store:        store,
		Index:        index,
		Catalog:      cat,
		Generator:    generator,
		Sources:      sources,
		Orchestrator: orchestrator,
	}, nil
}

func printUsage() {
	fmt.Println(`tenmon - Space mission knowledge service

Usage:
  tenmon server [flags]           Start the HTTP API server
  tenmon train [flags]            Submit a training job and poll it to completion
  tenmon query [flags] <text>     Ask the retrieval engine a question
  tenmon search [flags] <terms>   Keyword search over the record catalog
  tenmon models [flags]           List trained models
  tenmon status [flags]           Show index/store/job status
  tenmon version                  Show version
  tenmon help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/tenmon/config.yaml)
  --debug            Enable debug logging (queries, stage progress, artifact reloads)

Train Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline in-process.
  --model string     Model name (default from config)
  --sources string   Comma-separated source names, e.g. "nasa,spacex" (default: all configured)
  --poll duration    Status poll interval (default: 500ms)

Query/Search Flags:
  --config string    Config file path (for in-process mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for in-process mode.
  --type string      (search only) Filter by record type
  --limit int        (search only) Number of results (default: 10)
  --output string    Output format: text, compact, or json (default: text)

Examples:
  tenmon server
  tenmon train --sources nasa
  tenmon query tell me about the eagle nebula
  tenmon search --type launch falcon heavy
  tenmon search --output json starlink
  tenmon models
  tenmon status --output json`)
}
