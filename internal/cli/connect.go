package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/calvinalkan/docmigrate/internal/config"
	"github.com/calvinalkan/docmigrate/internal/doclist"
	"github.com/calvinalkan/docmigrate/internal/logging"
	"github.com/calvinalkan/docmigrate/internal/mediawiki"
	"github.com/calvinalkan/docmigrate/internal/migrate"
)

// services are the authenticated remote collaborators of a session.
type services struct {
	docs migrate.DocumentService
	wiki migrate.WikiService
}

// connectFunc authenticates against both services. Tests substitute
// in-memory services.
type connectFunc func(ctx context.Context, cfg config.Config, creds credentials, log logging.Logger) (*services, error)

// connect logs in to the document service and the wiki.
func connect(ctx context.Context, cfg config.Config, creds credentials, log logging.Logger) (*services, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeout)}
	if cfg.LogLevel != "" {
		httpClient.Transport = logging.NewTransport(nil, logging.Named(log, "http"))
	}

	docs := doclist.NewClient(doclist.Options{
		Host:       cfg.DocHost,
		AppName:    cfg.AppName,
		HTTPClient: httpClient,
	})

	var err error
	if creds.usePassword() {
		err = docs.Login(ctx, creds.username, creds.password)
	} else {
		err = docs.LoginWithToken(creds.authSub)
	}

	if err != nil {
		return nil, fmt.Errorf("document service login: %w", err)
	}

	wiki, err := mediawiki.NewClient(mediawiki.Options{
		Endpoint:  cfg.WikiAPI,
		UserAgent: cfg.AppName,
		Timeout:   time.Duration(cfg.HTTPTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("wiki: %w", err)
	}

	if cfg.WikiUsername != "" {
		err = wiki.Login(ctx, cfg.WikiUsername, cfg.WikiPassword)
		if err != nil {
			return nil, fmt.Errorf("wiki %s: %w", cfg.WikiAPI, err)
		}
	}

	log.Debug("connected", "doc_host", cfg.DocHost, "wiki_api", cfg.WikiAPI)

	return &services{docs: docs, wiki: wiki}, nil
}
