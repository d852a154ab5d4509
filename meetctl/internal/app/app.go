package app

import (
	"github.com/gavinvoiceai/meetflow-saas/client/api"
	"github.com/gavinvoiceai/meetflow-saas/client/capture"
	"github.com/gavinvoiceai/meetflow-saas/client/chat"
	"github.com/gavinvoiceai/meetflow-saas/client/registry"
	"github.com/gavinvoiceai/meetflow-saas/client/session"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/config"
)

// App holds the API clients every command shares. All authenticated
// clients draw their token from the session manager.
type App struct {
	Config      *config.Config
	Session     *session.Manager
	Gate        *session.Gate
	Meetings    *registry.Client
	Chat        *chat.Client
	Transcriber *capture.HTTPTranscriber
}

func New(cfg *config.Config) *App {
	store := session.NewDefaultStore(cfg.SessionFile)
	mgr := session.NewManager(api.New(cfg.UserURL, api.WithTimeout(cfg.Timeout)), store)

	authed := func(base string) *api.Client {
		return api.New(base, api.WithTimeout(cfg.Timeout), api.WithTokenSource(mgr))
	}

	return &App{
		Config:      cfg,
		Session:     mgr,
		Gate:        session.NewGate(mgr),
		Meetings:    registry.New(authed(cfg.MeetingURL)),
		Chat:        chat.New(authed(cfg.ChatURL)),
		Transcriber: capture.NewHTTPTranscriber(authed(cfg.TranscriptionURL)),
	}
}
