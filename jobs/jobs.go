// Package jobs runs work outside the request: queued emails on asynq and
// periodic maintenance on cron.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"natours/config"
	"natours/mail"
	"natours/metrics"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TaskWelcome is the job type name stored in Redis
	TaskWelcome = "email:welcome"
)

// WelcomeEmailPayload is stored in Redis as JSON
type WelcomeEmailPayload struct {
	To        string `json:"to"`
	FirstName string `json:"first_name"`
	URL       string `json:"url"`
	From      string `json:"from"`
}

func NewWelcomeEmailTask(e *mail.Email) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:        e.To,
		FirstName: e.FirstName,
		URL:       e.URL,
		From:      e.From,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}

// Dispatcher queues emails when Redis is configured and sends them inline
// otherwise.
type Dispatcher struct {
	client *asynq.Client
	mailer mail.Mailer
}

func NewDispatcher(cfg *config.Config, mailer mail.Mailer) *Dispatcher {
	d := &Dispatcher{mailer: mailer}
	if cfg.RedisAddr != "" {
		d.client = asynq.NewClient(redisOpt(cfg))
	}
	return d
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
}

func (d *Dispatcher) Mailer() mail.Mailer {
	return d.mailer
}

// SendWelcome must not fail the signup, so errors are only logged
func (d *Dispatcher) SendWelcome(ctx context.Context, e *mail.Email) {
	if d.client != nil {
		task, err := NewWelcomeEmailTask(e)
		if err == nil {
			_, err = d.client.EnqueueContext(ctx, task)
		}
		if err == nil {
			return
		}
		zap.L().Warn("enqueueing welcome email failed, sending inline", zap.String("to", e.To), zap.Error(err))
	}
	if err := e.SendWelcome(ctx, d.mailer); err != nil {
		zap.L().Error("sending welcome email", zap.String("to", e.To), zap.Error(err))
	}
}

func (d *Dispatcher) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Worker processes queued tasks
type Worker struct {
	server *asynq.Server
	mailer mail.Mailer
}

func NewWorker(cfg *config.Config, mailer mail.Mailer) *Worker {
	server := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger: zap.L().Sugar(),
	})
	return &Worker{server: server, mailer: mailer}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, w.handleWelcomeEmailTask)
	return mux
}

// Start runs the workers in the background
func (w *Worker) Start() error {
	zap.L().Info("Starting background job server")
	return w.server.Start(w.Mux())
}

func (w *Worker) Stop() {
	zap.L().Info("Stopping background job server")
	w.server.Shutdown()
}

func (w *Worker) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		metrics.JobsProcessed.WithLabelValues(TaskWelcome, metrics.Result(err)).Inc()
		return fmt.Errorf("failed to unmarshal welcome email payload: %w: %w", err, asynq.SkipRetry)
	}
	e := &mail.Email{To: p.To, FirstName: p.FirstName, URL: p.URL, From: p.From}
	err := e.SendWelcome(ctx, w.mailer)
	metrics.JobsProcessed.WithLabelValues(TaskWelcome, metrics.Result(err)).Inc()
	if err != nil {
		zap.L().Error("Failed to send welcome email", zap.String("to", p.To), zap.Error(err))
		return err
	}
	zap.L().Info("Successfully sent welcome email", zap.String("to", p.To))
	return nil
}
