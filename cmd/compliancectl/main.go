// compliancectl is the operator CLI: it processes uploaded documents
// through the extraction pipeline, exports compliance reports and checks
// the deployment's configuration and database.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/complytrack/compliance-tracker/internal/common"
	"github.com/complytrack/compliance-tracker/internal/config"
	"github.com/complytrack/compliance-tracker/internal/export"
	"github.com/complytrack/compliance-tracker/internal/llm"
	"github.com/complytrack/compliance-tracker/internal/llm/openai"
	"github.com/complytrack/compliance-tracker/internal/ocr"
	"github.com/complytrack/compliance-tracker/internal/pipeline"
	"github.com/complytrack/compliance-tracker/internal/repository"
	"github.com/complytrack/compliance-tracker/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "compliancectl",
		Short:         "Compliance document pipeline operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newProcessCmd(logger),
		newExportCmd(logger),
		newValidateConfigCmd(logger),
		newDBHealthCmd(logger),
	)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// repos bundles the storage backends a command needs, with a single close
// hook regardless of which database mode is active.
type repos struct {
	docs  repository.DocumentRepository
	reqs  repository.RequirementRepository
	close func()
}

// openRepos connects to Postgres when DB_URL is set, otherwise to the
// embedded SQLite file for local and dev use.
func openRepos(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repos, error) {
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &repos{
			docs:  repository.NewDocumentRepository(pool, logger),
			reqs:  repository.NewRequirementRepository(pool, logger),
			close: pool.Close,
		}, nil
	}

	db, err := repository.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
	if err != nil {
		return nil, err
	}
	return &repos{
		docs:  repository.NewSQLiteDocumentRepository(db, logger),
		reqs:  repository.NewSQLiteRequirementRepository(db, logger),
		close: func() { _ = db.Close() },
	}, nil
}

// openStore picks the object store when MinIO is configured, otherwise the
// local filesystem root.
func openStore(ctx context.Context, cfg *common.Config) (storage.Store, error) {
	if cfg.Storage.MinioEndpoint != "" {
		st, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Storage.MinioEndpoint,
			AccessKey: cfg.Storage.MinioAccessKey,
			SecretKey: cfg.Storage.MinioSecretKey,
			Bucket:    cfg.Storage.MinioBucket,
			UseSSL:    cfg.Storage.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	}
	return storage.NewLocalStore(cfg.Storage.LocalRoot), nil
}

func buildProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, func(), error) {
	registry, err := config.Load(cfg.Pipeline.NicheConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load niche config: %w", err)
	}

	r, err := openRepos(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		r.close()
		return nil, nil, err
	}

	vision := ocr.NewVisionEngine(ocr.VisionConfig{
		APIKey:   cfg.OCR.VisionAPIKey,
		Endpoint: cfg.OCR.VisionEndpoint,
	})
	tesseract := ocr.NewTesseractEngine(ocr.TesseractConfig{
		Binary: cfg.OCR.Tesseract,
		Lang:   cfg.OCR.TesseractLang,
	}, nil)
	gateway := ocr.NewGateway(ocr.GatewayConfig{
		Pdftoppm: cfg.OCR.Pdftoppm,
		DPI:      cfg.OCR.DPI,
	}, vision, tesseract, logger)

	var completer llm.Completer
	if cfg.LLM.APIKey != "" {
		completer = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}
	extractor := llm.NewExtractor(completer, llm.ExtractorConfig{
		ReviewThreshold: cfg.Pipeline.ConfidenceThreshold,
	}, logger)

	linker := pipeline.NewLinker(registry, r.reqs, cfg.Pipeline.ConfidenceThreshold, logger)
	proc := pipeline.NewProcessor(r.docs, store, gateway, extractor, registry, linker, logger)
	return proc, r.close, nil
}

func newProcessCmd(logger *slog.Logger) *cobra.Command {
	var idStr string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the extraction pipeline for one uploaded document",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(idStr)
			if err != nil {
				return fmt.Errorf("invalid --id: %w", err)
			}
			ctx := cmd.Context()
			cfg := common.LoadConfig()
			proc, closeFn, err := buildProcessor(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			res := proc.ProcessDocument(ctx, id)
			logger.Info("process result",
				"document_id", res.DocumentID,
				"success", res.Success,
				"confidence", res.Confidence,
				"needs_review", res.NeedsReview,
				"errors", res.Errors,
			)
			if !res.Success {
				return fmt.Errorf("processing failed: %v", res.Errors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&idStr, "id", "", "document id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newExportCmd(logger *slog.Logger) *cobra.Command {
	var entityStr, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an entity's requirements to an XLSX report",
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID, err := uuid.Parse(entityStr)
			if err != nil {
				return fmt.Errorf("invalid --entity: %w", err)
			}
			ctx := cmd.Context()
			cfg := common.LoadConfig()

			registry, err := config.Load(cfg.Pipeline.NicheConfigPath)
			if err != nil {
				return fmt.Errorf("load niche config: %w", err)
			}
			r, err := openRepos(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer r.close()

			svc := export.NewService(r.reqs, registry, logger)
			data, err := svc.ExportRequirementsXLSX(ctx, entityID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Info("report written", "path", out, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&entityStr, "entity", "", "entity id (required)")
	cmd.Flags().StringVar(&out, "out", "requirements.xlsx", "output XLSX path")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func newValidateConfigCmd(logger *slog.Logger) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Validate a niche configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = common.LoadConfig().Pipeline.NicheConfigPath
			}
			registry, err := config.Load(path)
			if err != nil {
				return err
			}
			logger.Info("configuration valid",
				"path", path,
				"document_types", len(registry.DocumentTypes()),
				"requirement_types", len(registry.RequirementTypes()),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "niche config path (defaults to NICHE_CONFIG_PATH)")
	return cmd
}

func newDBHealthCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Ping the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := common.LoadConfig()
			if cfg.Database.DSN == "" {
				db, err := repository.OpenSQLite(ctx, cfg.Database.SQLitePath, logger)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				if err := db.PingContext(ctx); err != nil {
					return err
				}
				logger.Info("sqlite ok", "path", cfg.Database.SQLitePath)
				return nil
			}

			pool, err := repository.Open(ctx, repository.Config{
				DSN:         cfg.Database.DSN,
				MaxConns:    cfg.Database.MaxConns,
				MinConns:    cfg.Database.MinConns,
				DialTimeout: cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
				return err
			}
			logger.Info("database ok")
			return nil
		},
	}
}
