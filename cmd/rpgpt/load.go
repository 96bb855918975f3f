package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rpgpt/internal/analysis"
	"rpgpt/internal/config"
	"rpgpt/internal/service"
	"rpgpt/internal/state"
)

// loadEngine reads the question table, sector table and alias table in
// parallel and builds the filter engine over them
func loadEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.FilterEngine, error) {
	var (
		questions *state.DataFrame
		sectors   *state.DataFrame
		aliases   *service.AliasTable
	)

	g, gctx := errgroup.WithContext(ctx)

	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		ds := service.NewPostgresDataSource()
		err := ds.Connect(ctx, service.DataSourceConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		defer ds.Close()

		g.Go(func() error {
			df, err := ds.LoadTable(gctx, cfg.Postgres.QuestionsTable)
			questions = df
			return err
		})
		g.Go(func() error {
			df, err := ds.LoadTable(gctx, cfg.Postgres.SectorsTable)
			sectors = df
			return err
		})
	default:
		csv := analysis.NewCSVService()
		g.Go(func() error {
			df, err := csv.LoadFile(cfg.Dataset.QuestionsPath)
			questions = df
			return err
		})
		g.Go(func() error {
			df, err := csv.LoadFile(cfg.Dataset.SectorsPath)
			sectors = df
			return err
		})
	}

	g.Go(func() error {
		t, err := service.LoadAliasFile(cfg.Dataset.AliasesPath)
		aliases = t
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	profile := service.NewDataQualityProfiler().Profile(questions, service.ColQuestionNumber)
	if len(profile.DuplicateKeys) > 0 {
		logger.Warn("question numbers are not unique; later rows share an answer with earlier ones",
			zap.Strings("question_numbers", profile.DuplicateKeys),
		)
	}
	for _, col := range profile.Columns {
		logger.Debug("column profile",
			zap.String("column", col.ColumnName),
			zap.Float64("null_rate", col.NullRate),
			zap.Int("distinct", col.DistinctCount),
		)
	}

	dataset, malformed, err := service.NewDataset(questions, cfg.Dataset.QuestionTextColumn)
	if err != nil {
		return nil, err
	}
	for _, m := range malformed {
		logger.Warn("malformed sector expression",
			zap.String("code", string(service.MalformedSectorExpr)),
			zap.String("question", m.QuestionID),
			zap.String("sector", m.SectorExpr),
		)
	}

	sectorTable, err := service.NewSectorTable(sectors)
	if err != nil {
		return nil, err
	}

	logger.Info("tables loaded",
		zap.String("source", cfg.Dataset.Source),
		zap.Int("questions", dataset.Len()),
		zap.Int("sectors", len(sectorTable.Names())),
		zap.Int("aliases", aliases.Len()),
		zap.Int("malformed", len(malformed)),
	)
	return service.NewFilterEngine(dataset, sectorTable, aliases), nil
}
