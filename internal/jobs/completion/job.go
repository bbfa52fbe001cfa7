package completion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec каждые 5 минут
const DefaultSpec = "*/5 * * * *"

// runTimeout ограничение одного прохода
const runTimeout = 2 * time.Minute

// ErrInvalidSpec некорректное cron выражение
var ErrInvalidSpec = errors.New("completion: invalid cron spec")

// Job периодически переводит прошедшие подтверждённые записи в completed
// Сам синхронизатор не знает о расписании запуска, job только вызывает его по cron
type Job struct {
	completer AppointmentCompleter
	location  *time.Location
	logger    Logger

	cron *cron.Cron
	mu   sync.Mutex // один проход за раз
}

// NewJob регистрирует проход по cron выражению (стандартные 5 полей)
func NewJob(completer AppointmentCompleter, schedule string, location *time.Location, logger Logger) (*Job, error) {
	if schedule == "" {
		schedule = DefaultSpec
	}
	if location == nil {
		location = time.UTC
	}

	j := &Job{
		completer: completer,
		location:  location,
		logger:    logger,
		cron:      cron.New(cron.WithLocation(location)),
	}

	if _, err := j.cron.AddFunc(schedule, j.tick); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, schedule, err)
	}

	return j, nil
}

// Start запускает планировщик в фоне
func (j *Job) Start() {
	j.cron.Start()
	j.logger.Info("CompletionJob: scheduler started")
}

// Stop останавливает планировщик и ждёт текущий проход
func (j *Job) Stop(ctx context.Context) {
	stopped := j.cron.Stop()
	select {
	case <-stopped.Done():
		j.logger.Info("CompletionJob: scheduler stopped")
	case <-ctx.Done():
		j.logger.Warn("CompletionJob: stop interrupted: %v", ctx.Err())
	}
}

// RunOnce выполняет один проход синхронно
func (j *Job) RunOnce(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().In(j.location)
	result, err := j.completer.CompleteFinished(ctx, now)
	if err != nil {
		j.logger.Error("CompletionJob: pass at %s finished with errors (completed=%d, failed=%d): %v",
			now.Format(time.RFC3339), result.Completed, result.Failed, err)
		return err
	}

	if result.Completed > 0 {
		j.logger.Info("CompletionJob: completed %d appointments", result.Completed)
	}
	return nil
}

func (j *Job) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_ = j.RunOnce(ctx)
}
