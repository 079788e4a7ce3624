package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bellezapp/discovery-cli/internal/db"
	"github.com/bellezapp/discovery-cli/internal/discovery"
	"github.com/bellezapp/discovery-cli/internal/outreach"
	"github.com/bellezapp/discovery-cli/pkg/mailer"
	"github.com/bellezapp/discovery-cli/pkg/whatsapp"
)

// openStore builds the configured store backend.
func openStore(ctx context.Context) (discovery.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
		if err != nil {
			return nil, err
		}
		return discovery.NewPostgresStore(pool).WithCloser(pool.Close), nil
	case "sqlite":
		return discovery.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildDispatcher wires the configured messaging providers. Unconfigured
// channels are left nil and skipped by the dispatcher.
func buildDispatcher(store discovery.Store) *outreach.Dispatcher {
	var texter outreach.TextSender
	if cfg.WhatsApp.Token != "" && cfg.WhatsApp.PhoneNumberID != "" {
		var opts []whatsapp.Option
		if cfg.WhatsApp.BaseURL != "" {
			opts = append(opts, whatsapp.WithBaseURL(cfg.WhatsApp.BaseURL))
		}
		texter = whatsapp.NewClient(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, opts...)
	}

	var emailer outreach.EmailSender
	if cfg.SMTP.Host != "" {
		emailer = mailer.New(cfg.SMTP)
	}

	return outreach.NewDispatcher(store, texter, emailer, cfg.Outreach.DispatchPerSecond)
}

// loadTemplates loads message templates with any configured overrides.
func loadTemplates() (*outreach.Templates, error) {
	if err := cfg.Validate("outreach"); err != nil {
		return nil, err
	}
	return outreach.LoadTemplates(cfg.Outreach.RegistrationBaseURL, cfg.Outreach.TemplatesPath)
}
