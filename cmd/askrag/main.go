package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"askrag/internal/app"
	"askrag/internal/config"
	"askrag/internal/helper"
	"askrag/internal/models"
	"askrag/internal/rag"
	"askrag/internal/session"
	"askrag/internal/web"
)

const configFilePath = "./configs/config.yaml"

func main() {
	var configPath string
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           "askrag",
		Short:         "Ask questions about your PDFs",
		Long:          "Upload PDF documents, index their text and answer questions from it with a hosted LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := helper.SetupLogger(loaded.Log.Level, loaded.Log.PrettyOrDefault()); err != nil {
				return err
			}
			log.Debug().Interface("config", redacted(loaded)).Msg("Loaded config")
			cfg = loaded
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configFilePath, "Path to the YAML config file")

	rootCmd.AddCommand(createServeCommand(&cfg))
	rootCmd.AddCommand(createAskCommand(&cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("askrag failed")
	}
}

func createServeCommand(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	srv := web.NewServer(a.Orchestrator, session.NewStore(cfg.Server.SessionTTL), &cfg.Server, &cfg.Upload)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
		defer cancel()
		err = srv.Stop(shutdownCtx)
	}

	if cerr := a.Close(context.Background()); cerr != nil {
		log.Error().Err(cerr).Msg("Error releasing knowledge bases")
	}
	return err
}

func createAskCommand(cfg **config.Config) *cobra.Command {
	var files []string
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Index local PDFs and answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ask(cmd.Context(), *cfg, files, strings.Join(args, " "), showSources)
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "PDF file to index (repeatable)")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "Print the retrieved chunks")
	cmd.MarkFlagRequired("file")
	return cmd
}

func ask(ctx context.Context, cfg *config.Config, paths []string, question string, showSources bool) error {
	uploads, err := readFiles(paths)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error releasing knowledge bases")
		}
	}()

	s := rag.NewSession()
	if _, err := a.Orchestrator.Upload(ctx, s, uploads); err != nil {
		return err
	}

	res := a.Orchestrator.Ask(ctx, s, question)
	switch res.Outcome {
	case rag.OutcomeFailed:
		return errors.New(res.Message)
	case rag.OutcomeIgnored:
		return errors.New("question is empty")
	case rag.OutcomeNeedsUpload:
		return errors.New(res.Message)
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", question)

	if showSources {
		log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		helper.PrettyPrint(os.Stdout, res.Sources)
		fmt.Println()
	}

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", res.Turn.Answer)
	return nil
}

func readFiles(paths []string) ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, models.UploadedFile{
			Name:    filepath.Base(p),
			Content: content,
			Size:    int64(len(content)),
		})
	}
	return files, nil
}

// redacted returns a copy of cfg safe to log.
func redacted(cfg *config.Config) config.Config {
	c := *cfg
	if c.EmbedLLM.Key != "" {
		c.EmbedLLM.Key = "***"
	}
	if c.InferenceLLM.Key != "" {
		c.InferenceLLM.Key = "***"
	}
	if c.Database.Password != "" {
		c.Database.Password = "***"
	}
	return c
}
