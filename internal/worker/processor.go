package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/domain"
	"github.com/remindhub/reminder-pipeline/internal/provider"
	"github.com/remindhub/reminder-pipeline/internal/ratelimiter"
	"github.com/remindhub/reminder-pipeline/internal/repository"
)

// Processor handles exactly one reminder delivery attempt.
//
// Per-job state machine:
//
//	Received → TargetLookup → { no target:      done (success)
//	                          | invalid target: done (success, dry-run logged)
//	                          | valid target:   Dispatch → { delivered: done
//	                                                       | error:     fail (retryable) } }
//
// Only a provider (or registry) infrastructure failure is an error; a user
// without a device or with an unusable token is an expected steady state.
// Retrying those could never succeed, so they complete the job.
type Processor struct {
	devices repository.DeviceRepository
	prov    provider.Provider
	limiter *ratelimiter.SendLimiter
	logger  *zap.Logger
}

func NewProcessor(
	devices repository.DeviceRepository,
	prov provider.Provider,
	limiter *ratelimiter.SendLimiter,
	logger *zap.Logger,
) *Processor {
	return &Processor{devices: devices, prov: prov, limiter: limiter, logger: logger}
}

// ProcessReminder resolves the user's delivery target and dispatches one
// notification attempt. The returned error is non-nil only on the retryable
// path; it always carries a *domain.TransientError.
func (p *Processor) ProcessReminder(ctx context.Context, job domain.ReminderJob) (domain.DeliveryOutcome, error) {
	log := p.logger.With(
		zap.String("event_id", job.EventID),
		zap.String("user_id", job.UserID),
	)

	device, err := p.devices.FindByUserID(ctx, job.UserID)
	if errors.Is(err, domain.ErrDeviceNotFound) {
		// Not an error: the user never enabled notifications.
		log.Info("no push target registered, skipping delivery")
		return domain.OutcomeNoTarget, nil
	}
	if err != nil {
		return domain.OutcomeTransientError,
			&domain.TransientError{Op: "device lookup", Cause: err}
	}

	msg := buildMessage(job, device.PushToken)

	if !p.prov.ValidTarget(device.PushToken) {
		// Dry-run path: log the would-be payload instead of calling the
		// provider. Keeps the pipeline operable without a real push
		// credential, and is a completion, not a failure.
		log.Info("push target failed format check, logging notification instead",
			zap.String("to", msg.To),
			zap.String("title", msg.Title),
			zap.String("body", msg.Body),
		)
		return domain.OutcomeInvalidTarget, nil
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			// ctx cancelled while waiting: worker is shutting down.
			return domain.OutcomeTransientError,
				&domain.TransientError{Op: "rate limit wait", Cause: err}
		}
	}

	resp, err := p.prov.Send(ctx, msg)
	if err != nil {
		log.Warn("provider send failed", zap.Error(err))
		return domain.OutcomeTransientError,
			&domain.TransientError{Op: "push send", Cause: err}
	}

	log.Info("reminder delivered", zap.String("provider_ticket_id", resp.ID))
	return domain.OutcomeDelivered, nil
}

// buildMessage renders the notification: one human-readable line combining
// the event title and the event's short time.
func buildMessage(job domain.ReminderJob, token string) *provider.PushMessage {
	formatted := job.EventTime.Local().Format("15:04")
	return &provider.PushMessage{
		To:    token,
		Title: "Reminder for " + job.Title,
		Body:  job.Title + " at " + formatted,
		Data: map[string]string{
			"title":     job.Title,
			"eventTime": job.EventTime.Format(time.RFC3339),
		},
		Sound: "default",
	}
}
