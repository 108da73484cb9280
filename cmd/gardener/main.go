// gardener is the Garden Advisor agent: a conversational plant-care
// assistant with per-user memory, tools, and a websocket chat gateway.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	chromemgo "github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/verdantlabs/gardener/config"
	"github.com/verdantlabs/gardener/engine"
	"github.com/verdantlabs/gardener/gateway"
	"github.com/verdantlabs/gardener/llm"
	"github.com/verdantlabs/gardener/memory"
	"github.com/verdantlabs/gardener/memory/store/chromem"
	"github.com/verdantlabs/gardener/planner"
	"github.com/verdantlabs/gardener/search"
	"github.com/verdantlabs/gardener/tools"
	"github.com/verdantlabs/gardener/weather"
)

var (
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gardener",
	Short: "Smart Garden Advisor agent",
	Long: `gardener is a conversational garden-advisory agent. It answers
plant-care questions through a plan, reason, act, reflect loop backed by
per-user short-term and long-term memory and a small set of tools
(weather, calculator, reminders, web search).

The root command serves the websocket chat gateway; the chat subcommand
runs a local REPL against the same agent.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return chat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildAgent wires the full stack from configuration.
func buildAgent(ctx context.Context, cfg *config.Config) (*engine.Agent, *tools.Dispatcher, func(), error) {
	store, err := chromem.New(cfg.ChromaPath, embeddingFunc(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open vector store: %w", err)
	}

	mem, err := memory.NewManager(ctx, store, logger.Named("memory"))
	if err != nil {
		return nil, nil, nil, err
	}

	reminders, err := tools.NewReminderStore(cfg.ReminderDB, logger.Named("reminders"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open reminder store: %w", err)
	}

	var ws tools.WeatherService
	if cfg.WeatherAPIKey != "" {
		ws = weather.NewClient(cfg.WeatherAPIKey)
	} else {
		logger.Warn("WEATHER_API_KEY not set, weather tool disabled")
	}

	dispatcher, err := tools.NewDispatcher(ws, search.NewClient(), reminders, cfg.SearchEnabled, logger.Named("tools"))
	if err != nil {
		reminders.Close()
		return nil, nil, nil, err
	}

	completer := llm.NewGroqCompleter(cfg.GroqAPIKey, cfg.GroqAPIBase, cfg.GroqModel)
	pl := planner.New(completer, logger.Named("planner"))
	agent := engine.NewAgent(completer, mem, pl, dispatcher, logger.Named("engine"))

	cleanup := func() {
		reminders.Close()
		store.Close()
	}
	return agent, dispatcher, cleanup, nil
}

// embeddingFunc picks the configured OpenAI-compatible embedding
// endpoint, falling back to the deterministic local embedder so the
// agent works offline.
func embeddingFunc(cfg *config.Config) chromemgo.EmbeddingFunc {
	if cfg.EmbedAPIBase != "" && cfg.EmbedAPIKey != "" {
		return chromemgo.NewEmbeddingFuncOpenAICompat(cfg.EmbedAPIBase, cfg.EmbedAPIKey, cfg.EmbedModel, nil)
	}
	return memory.LocalEmbedding(384)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, dispatcher, cleanup, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	gw := gateway.New(agent, dispatcher, logger.Named("gateway"))
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: gw.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("garden advisor listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func chat() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, _, cleanup, err := buildAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("Garden Advisor ready. Ask me anything about plant care (ctrl-d to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fmt.Println(agent.ProcessMessage(ctx, "local", text))
	}
}
