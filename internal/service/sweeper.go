package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"filevault/internal/domain"
	"filevault/internal/metrics"
	"filevault/internal/service/s3"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SweeperConfig настройки окончательного удаления файлов из корзины
type SweeperConfig struct {
	Window    time.Duration
	Schedule  string
	BatchSize int
}

// RetentionSweeper удаляет файлы, пролежавшие в корзине дольше Window
type RetentionSweeper struct {
	files    FileStore
	storage  s3.Storage
	cfg      SweeperConfig
	cron     *cron.Cron
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
	stopOnce sync.Once

	// cursor последний просмотренный кандидат, следующий проход начинается после него
	mu     sync.Mutex
	cursor *domain.ExpiryCursor
}

func NewRetentionSweeper(files FileStore, storage s3.Storage, cfg SweeperConfig, m *metrics.Metrics, logger zerolog.Logger) *RetentionSweeper {
	logger = logger.With().Str("component", "sweeper").Logger()

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronLogger := cronLogger{logger: logger}

	return &RetentionSweeper{
		files:   files,
		storage: storage,
		cfg:     cfg,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SweepExpired обрабатывает одну партию кандидатов. Ошибка по отдельному файлу
// не прерывает проход, файл будет повторно обработан, когда очередь дойдет
// до него снова.
func (s *RetentionSweeper) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	cutoff := start.Add(-s.cfg.Window)

	candidates, err := s.nextBatch(ctx, cutoff)
	if err != nil {
		s.metrics.ObserveSweep(time.Since(start), 0, 0)
		return 0, fmt.Errorf("failed to list expired files: %w", err)
	}

	purged, failed := 0, 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		ok, err := s.files.PurgeExpired(ctx, candidate.ID, cutoff, func(file *domain.File) error {
			return s.storage.DeleteObject(ctx, file.StorageKey)
		})
		if err != nil {
			failed++
			s.logger.Warn().Err(err).
				Str("file_id", candidate.ID.String()).
				Str("space_id", candidate.SpaceID).
				Msg("failed to purge file")
			continue
		}
		if ok {
			purged++
			s.logger.Debug().
				Str("file_id", candidate.ID.String()).
				Str("space_id", candidate.SpaceID).
				Msg("file purged")
		}
	}

	s.metrics.ObserveSweep(time.Since(start), purged, failed)
	if purged > 0 || failed > 0 {
		s.logger.Info().
			Int("candidates", len(candidates)).
			Int("purged", purged).
			Int("failed", failed).
			Msg("retention sweep finished")
	}

	return purged, nil
}

// nextBatch читает партию после курсора. Когда очередь пройдена до конца,
// чтение начинается заново с самых старых файлов.
func (s *RetentionSweeper) nextBatch(ctx context.Context, cutoff time.Time) ([]domain.File, error) {
	candidates, err := s.files.ListExpired(ctx, cutoff, s.cursor, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 && s.cursor != nil {
		s.cursor = nil
		candidates, err = s.files.ListExpired(ctx, cutoff, nil, s.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
	}

	if s.cfg.BatchSize <= 0 || len(candidates) < s.cfg.BatchSize {
		s.cursor = nil
	} else {
		last := candidates[len(candidates)-1]
		s.cursor = &domain.ExpiryCursor{MarkedAt: *last.MarkedForDeletionAt, ID: last.ID}
	}

	return candidates, nil
}

// Start регистрирует очистку в планировщике. Планировщик останавливается
// при отмене ctx или вызове Stop.
func (s *RetentionSweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.SweepExpired(ctx); err != nil {
			s.logger.Error().Err(err).Msg("retention sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.cfg.Schedule).
		Dur("window", s.cfg.Window).
		Int("batch_size", s.cfg.BatchSize).
		Msg("retention sweeper started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop дожидается завершения текущего прохода. Повторный вызов безопасен.
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		s.logger.Info().Msg("retention sweeper stopped")
	})
}

// cronLogger направляет сообщения cron в zerolog
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
