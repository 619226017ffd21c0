package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/analysis"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/api"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/chatbot"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/classifier"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/genai"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MindCare state data
	DefaultStateDir = "/var/lib/mindcare"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "mindcare.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var genaiClient genai.ClientInterface
	if *flags.openaiKey != "" {
		client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Error("Failed to create GenAI client", "error", err)
			os.Exit(1)
		}
		genaiClient = client
	} else {
		slog.Warn("No OpenAI API key configured; classifier runs heuristic-only and chat uses canned responses")
	}

	cls := classifier.New(genaiClient)
	analyzer := analysis.NewAnalyzer(cls, st,
		analysis.WithWindowSize(util.ParseIntEnv("ANALYSIS_WINDOW_SIZE", analysis.DefaultWindowSize)),
		analysis.WithThreshold(util.ParseFloatEnv("MENTAL_STATE_THRESHOLD", analysis.DefaultThreshold)),
	)

	var botOpts []chatbot.Option
	if *flags.datasetPath != "" {
		botOpts = append(botOpts, chatbot.WithDatasetPath(*flags.datasetPath))
	}
	bot := chatbot.New(genaiClient, botOpts...)

	apiOpts := []api.Option{api.WithGenAIClient(genaiClient)}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(st, cls, analyzer, bot, apiOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping MindCare with configured modules")
	if err := server.Run(ctx); err != nil {
		slog.Error("MindCare failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("MindCare exited successfully")
}

// Config holds environment configuration
type Config struct {
	DbDriver    string
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	DatasetPath string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDriver    *string
	dbDSN       *string
	openaiKey   *string
	apiAddr     *string
	datasetPath *string
}

// initializeLogger sets up structured logging. DEBUG=true raises verbosity.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:    os.Getenv("DB_DRIVER"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("MINDCARE_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		DatasetPath: os.Getenv("CHATBOT_DATASET_PATH"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No MINDCARE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"MINDCARE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"CHATBOT_DATASET_PATH", config.DatasetPath)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for MindCare data (overrides $MINDCARE_STATE_DIR)"),
		dbDriver:    flag.String("db-driver", config.DbDriver, "database driver, postgres or sqlite3 (overrides $DB_DRIVER)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		datasetPath: flag.String("chatbot-dataset", config.DatasetPath, "path to the chatbot intent dataset JSON (overrides $CHATBOT_DATASET_PATH)"),
	}
	flag.Parse()
	return flags
}

// openStore selects the storage backend from the configured driver and DSN.
// Postgres is used when the driver says so or the DSN looks like a Postgres
// URL; otherwise SQLite in the state directory.
func openStore(flags Flags) (store.Store, error) {
	driver := strings.ToLower(*flags.dbDriver)
	dsn := *flags.dbDSN

	usePostgres := driver == "postgres" ||
		(driver == "" && (strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")))

	if usePostgres {
		slog.Info("Using Postgres store", "dsn_set", dsn != "")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}

	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", dsn)
	}
	slog.Info("Using SQLite store", "path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}
