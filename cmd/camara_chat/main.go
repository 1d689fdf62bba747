package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"camara_chat/pkg/ai"
	_ "camara_chat/pkg/ai/providers"
	"camara_chat/pkg/chatapi"
	"camara_chat/pkg/config"
	"camara_chat/pkg/logging"
	"camara_chat/pkg/retrieval"
	"camara_chat/pkg/server"
	"camara_chat/pkg/ui"

	tea "charm.land/bubbletea/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configPath string
	endpoint   string
	plainMode  bool
	listenAddr string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "camara_chat",
	Short: "Câmara Espanhola chat assistant",
	Long: `camara_chat is the Câmara Espanhola assistant for the terminal.

Run without arguments to open the chat panel. Use "serve" to run the
/api/chat backend and "index" to load documents into its store.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat panel",
	RunE:  runChat,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/chat",
	RunE:  runServe,
}

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index .txt, .md, .html and .pdf documents for retrieval",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.camara_chat/config.json)")

	for _, c := range []*cobra.Command{rootCmd, chatCmd} {
		c.Flags().StringVar(&endpoint, "endpoint", "", "Chat backend base URL (overrides config)")
		c.Flags().BoolVar(&plainMode, "plain", false, "Line mode without the full-screen panel")
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default host:port from config)")

	rootCmd.AddCommand(chatCmd, serveCmd, indexCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env, the config file and the environment, then starts logging.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&loaded); err != nil {
		return err
	}
	cfg = loaded

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	slog.Debug("config_loaded", "path", path, "command", cmd.Name())
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	clientCfg := cfg.Client
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		clientCfg.Endpoint = endpoint
		cfg.Client.Endpoint = endpoint
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	client := chatapi.New(clientCfg)
	slog.Info("chat_start", "endpoint", client.URL(), "plain", plainMode)

	if plainMode || !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		// After the first interrupt a second one gets the default behaviour.
		context.AfterFunc(ctx, stop)
		return runPlain(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), client)
	}

	model, err := ui.NewModel(clientCfg, client)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("chat panel failed: %w", err)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := retrieval.Open(cfg.Retrieval.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	retriever, err := retrieval.NewRetriever(store, backend, cfg.Retrieval)
	if err != nil {
		return err
	}
	svc, err := server.NewService(backend, retriever, cfg.Retrieval.TopK, cfg.Server.Temperature)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg.Server, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := listenAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := ai.GetProviderFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := retrieval.Open(cfg.Retrieval.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	indexer, err := retrieval.NewIndexer(store, backend, cfg.Retrieval)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := indexer.IndexDir(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d files (%d chunks) into %s\n", stats.Files, stats.Chunks, cfg.Retrieval.DBPath)
	return nil
}
