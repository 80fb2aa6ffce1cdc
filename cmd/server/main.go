package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/anshulg/speakersplit/internal/audio"
	"github.com/anshulg/speakersplit/internal/cleanup"
	"github.com/anshulg/speakersplit/internal/download"
	"github.com/anshulg/speakersplit/internal/export"
	"github.com/anshulg/speakersplit/internal/handlers"
	"github.com/anshulg/speakersplit/internal/pipeline"
	"github.com/anshulg/speakersplit/internal/queue"
	"github.com/anshulg/speakersplit/internal/storage"
	"github.com/anshulg/speakersplit/internal/transcribe"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Transcription struct {
		Backend            string `yaml:"backend"` // "assemblyai" or "whisper"
		APIKey             string `yaml:"api_key"`
		BaseURL            string `yaml:"base_url"`
		PollIntervalSecs   int    `yaml:"poll_interval_seconds"`
		PollTimeoutMinutes int    `yaml:"poll_timeout_minutes"`
	} `yaml:"transcription"`

	Pipeline struct {
		SampleRate     int    `yaml:"sample_rate"`
		PauseMs        uint64 `yaml:"pause_ms"`
		MaxPartMinutes int    `yaml:"max_part_minutes"`
	} `yaml:"pipeline"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir   string `yaml:"temp_dir"`
		OutputDir string `yaml:"output_dir"`
		Database  string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Logging struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"logging"`

	Limits struct {
		MaxBodySizeMB int `yaml:"max_body_size_mb"`
	} `yaml:"limits"`
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	if err := os.MkdirAll(config.Storage.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Log to stdout, an in-memory ring for /logs, and a rotating file.
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	writers := []io.Writer{os.Stdout, logBuffer}
	if config.Logging.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.Logging.File,
			MaxSize:    config.Logging.MaxSizeMB,
			MaxBackups: config.Logging.MaxBackups,
		})
	}
	log.SetOutput(io.MultiWriter(writers...))

	log.Println("Initializing components...")

	codec := audio.NewFFmpegCodec(config.Pipeline.SampleRate)
	downloader := download.NewYtDlp(config.Storage.TempDir)

	pipelineCfg := pipeline.Config{
		PauseMs:      config.Pipeline.PauseMs,
		MaxPartMs:    uint64(config.Pipeline.MaxPartMinutes) * 60 * 1000,
		PollInterval: time.Duration(config.Transcription.PollIntervalSecs) * time.Second,
		PollTimeout:  time.Duration(config.Transcription.PollTimeoutMinutes) * time.Minute,
	}

	newPipeline := func(apiKey string) *pipeline.Orchestrator {
		var transcriber transcribe.Transcriber
		if config.Transcription.Backend == "whisper" {
			transcriber = transcribe.NewWhisperTranscriber(apiKey, 0)
		} else {
			transcriber = transcribe.NewAssemblyAIClient(apiKey, config.Transcription.BaseURL)
		}
		return pipeline.New(downloader, transcriber, codec, pipelineCfg)
	}

	// Local storage
	localStorage := storage.NewLocalStorage(config.Storage.OutputDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *export.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = export.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Archives will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Database
	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Worker pool for async jobs, bound to the configured credential.
	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		newPipeline(config.Transcription.APIKey),
		localStorage,
		driveClient,
		db,
	)
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
		config.Storage.TempDir,
		config.Storage.OutputDir,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxBodySizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	processHandler := handlers.NewProcessHandler(newPipeline, config.Transcription.APIKey)
	jobsHandler := handlers.NewJobsHandler(workerPool, db)
	wsHandler := handlers.NewWsHandler(workerPool)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/process_video", processHandler.Handle)
	app.Post("/jobs", jobsHandler.Create)
	app.Get("/jobs", jobsHandler.List)
	app.Get("/jobs/:id", jobsHandler.Get)

	// WebSocket route
	app.Get("/ws/jobs/:id", websocket.New(wsHandler.Handle))

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /process_video - Split a video's audio by speaker (sync)")
	log.Println("   POST /jobs          - Queue a speaker-split job")
	log.Println("   GET  /jobs          - List recent jobs")
	log.Println("   GET  /jobs/:id      - Job status")
	log.Println("   GET  /ws/jobs/:id   - WebSocket job progress")
	log.Println("   GET  /metrics       - Prometheus metrics")
	log.Println("   GET  /logs          - View server logs")
	log.Println("   GET  /health        - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Pipeline.SampleRate == 0 {
		c.Pipeline.SampleRate = 44100
	}
	if c.Pipeline.MaxPartMinutes == 0 {
		c.Pipeline.MaxPartMinutes = 5
	}
	if c.Transcription.PollIntervalSecs == 0 {
		c.Transcription.PollIntervalSecs = 5
	}
	if c.Transcription.PollTimeoutMinutes == 0 {
		c.Transcription.PollTimeoutMinutes = 30
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = 2
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "outputs"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "speakersplit.db"
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 60
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.Limits.MaxBodySizeMB == 0 {
		c.Limits.MaxBodySizeMB = 10
	}
}
