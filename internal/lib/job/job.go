// Package job runs background work on Asynq: an asynq.Client enqueues tasks,
// an asynq.Server processes them and an asynq.Scheduler enqueues the periodic
// ones.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// SmileyRefresher rebuilds the cached smiley list and reports its size.
type SmileyRefresher interface {
	RefreshSmileys(ctx context.Context) (int, error)
}

type JobService struct {
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler
	cfg       *config.Config
	logger    *zerolog.Logger
	refresher SmileyRefresher
}

func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}
	jobLogger := logger.With().Str("component", "jobs").Logger()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		Logger:   asynqLogger{&jobLogger},
		LogLevel: asynq.WarnLevel,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			jobLogger.Error().Str("type", t.Type()).Err(err).Msg("task failed")
		}),
	})

	var scheduler *asynq.Scheduler
	if cfg.Filter.SmileyRefreshInterval > 0 {
		scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Logger:   asynqLogger{&jobLogger},
			LogLevel: asynq.WarnLevel,
		})
	}

	return &JobService{
		Client:    asynq.NewClient(redisOpt),
		server:    server,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    &jobLogger,
	}
}

// EnqueueSmileyRefresh asks a worker to rebuild the smiley cache. Requests
// made while one is already pending collapse into it.
func (j *JobService) EnqueueSmileyRefresh(ctx context.Context) error {
	info, err := j.Client.EnqueueContext(ctx, NewSmileyRefreshTask())
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskSmileyRefresh, err)
	}

	j.logger.Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("smiley refresh enqueued")
	return nil
}

// Start registers the handlers and starts the worker and the scheduler. It
// does not block. InitHandlers must have been called first.
func (j *JobService) Start() error {
	if j.refresher == nil {
		return errors.New("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSmileyRefresh, j.handleSmileyRefresh)

	j.logger.Info().Msg("starting background job server")
	if err := j.server.Start(mux); err != nil {
		return err
	}

	if j.scheduler != nil {
		spec := fmt.Sprintf("@every %s", j.cfg.Filter.SmileyRefreshInterval)
		if _, err := j.scheduler.Register(spec, NewSmileyRefreshTask()); err != nil {
			return fmt.Errorf("register smiley refresh schedule: %w", err)
		}
		if err := j.scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		j.logger.Info().Str("schedule", spec).Msg("smiley refresh scheduled")
	}

	return nil
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	if j.scheduler != nil {
		j.scheduler.Shutdown()
	}
	j.server.Shutdown()
	j.Client.Close()
}

// asynqLogger routes Asynq's own logs through zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
