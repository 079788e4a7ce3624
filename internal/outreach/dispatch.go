package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bellezapp/discovery-cli/internal/discovery"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// Channel names persisted on the salon after a successful send.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// dispatchTimeout bounds each provider call. The value is a fixed,
// documented choice; there is no retry or backoff inside a dispatch.
const dispatchTimeout = 15 * time.Second

// TextSender delivers a text message to a phone number.
type TextSender interface {
	SendText(ctx context.Context, to, message string) error
}

// EmailSender delivers a plain-text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Result reports the outcome of one dispatch.
type Result struct {
	Sent    bool   `json:"sent"`
	Channel string `json:"channel,omitempty"`
}

// Dispatcher sends outreach messages, preferring WhatsApp and falling
// back to email, and records the state mutation on success. Sends are
// best-effort: a total failure mutates nothing, leaving the salon
// eligible for the next sweep.
type Dispatcher struct {
	store   discovery.Store
	texter  TextSender
	mailer  EmailSender
	limiter *rate.Limiter
	subject string
}

// NewDispatcher creates a Dispatcher. Either sender may be nil when the
// corresponding provider is not configured; the channel is then skipped.
func NewDispatcher(store discovery.Store, texter TextSender, mailer EmailSender, perSecond float64) *Dispatcher {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Dispatcher{
		store:   store,
		texter:  texter,
		mailer:  mailer,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		subject: "Clientas te están buscando",
	}
}

// Dispatch sends message to the salon over the first working channel.
// On success it stamps last_outreach_at, increments outreach_count, and
// moves the salon to outreach_sent. last_outreach_at is only written on
// success, so a failed attempt does not reset the cooldown timer.
func (d *Dispatcher) Dispatch(ctx context.Context, salon *model.DiscoveredSalon, message string) (Result, error) {
	log := zap.L().With(zap.String("salon_id", salon.ID))

	channel, sendErr := d.trySend(ctx, salon, message)
	if sendErr != nil {
		log.Warn("outreach dispatch failed on all channels", zap.Error(sendErr))
		return Result{}, sendErr
	}

	if err := d.store.RecordOutreach(ctx, salon.ID, channel, time.Now()); err != nil {
		// The message went out; surface the bookkeeping failure but
		// report the send so callers count it correctly.
		log.Warn("record outreach failed after successful send",
			zap.String("channel", channel), zap.Error(err))
		return Result{Sent: true, Channel: channel}, err
	}

	log.Info("outreach sent", zap.String("channel", channel))
	return Result{Sent: true, Channel: channel}, nil
}

// trySend walks the channel preference order: WhatsApp first when a phone
// channel exists, then email.
func (d *Dispatcher) trySend(ctx context.Context, salon *model.DiscoveredSalon, message string) (string, error) {
	var lastErr error

	if d.texter != nil && salon.HasPhoneChannel() {
		to := salon.WhatsApp
		if to == "" {
			to = salon.Phone
		}
		if err := d.send(ctx, func(c context.Context) error {
			return d.texter.SendText(c, to, message)
		}); err != nil {
			lastErr = eris.Wrap(err, "dispatch: whatsapp send")
			zap.L().Debug("whatsapp send failed, trying email",
				zap.String("salon_id", salon.ID), zap.Error(err))
		} else {
			return ChannelWhatsApp, nil
		}
	}

	if d.mailer != nil && salon.Email != "" {
		if err := d.send(ctx, func(c context.Context) error {
			return d.mailer.SendEmail(c, salon.Email, d.subject, message)
		}); err != nil {
			lastErr = eris.Wrap(err, "dispatch: email send")
		} else {
			return ChannelEmail, nil
		}
	}

	if lastErr == nil {
		lastErr = eris.New("dispatch: no usable contact channel")
	}
	return "", lastErr
}

// send applies the shared rate limit and per-call timeout.
func (d *Dispatcher) send(ctx context.Context, fn func(context.Context) error) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "dispatch: rate limit wait")
	}
	callCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	return fn(callCtx)
}
