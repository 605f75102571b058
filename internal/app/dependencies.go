// Package app wires the chat client and the reference server from
// configuration using a samber/do injector.
package app

import (
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/directory"
	"github.com/nfrund/gobychat/internal/server"
	"github.com/nfrund/gobychat/internal/session"
	"github.com/nfrund/gobychat/internal/storage"
	"github.com/nfrund/gobychat/internal/transport"
)

// Client bundles the services a chat front end needs.
type Client struct {
	Config     *config.Config
	Logger     *slog.Logger
	Session    *session.Manager
	Directory  *directory.Client
	Identities *storage.IdentityStore
}

// NewInjector registers every provider against cfg. Services are built
// lazily on first invocation and shared afterwards. fs backs the identity
// store; pass afero.NewOsFs() outside tests.
func NewInjector(cfg *config.Config, logger *slog.Logger, fs afero.Fs) do.Injector {
	i := do.New()
	do.ProvideValue(i, cfg)
	do.ProvideValue(i, logger)
	do.ProvideValue(i, fs)

	do.Provide(i, provideDialer)
	do.Provide(i, provideDirectory)
	do.Provide(i, provideSession)
	do.Provide(i, provideIdentityStore)
	do.Provide(i, provideServer)
	return i
}

// ResolveClient builds the client services.
func ResolveClient(i do.Injector) (*Client, error) {
	mgr, err := do.Invoke[*session.Manager](i)
	if err != nil {
		return nil, err
	}
	identities, err := do.Invoke[*storage.IdentityStore](i)
	if err != nil {
		return nil, err
	}
	return &Client{
		Config:     do.MustInvoke[*config.Config](i),
		Logger:     do.MustInvoke[*slog.Logger](i),
		Session:    mgr,
		Directory:  do.MustInvoke[*directory.Client](i),
		Identities: identities,
	}, nil
}

// ResolveServer builds the reference server with its routes registered.
func ResolveServer(i do.Injector) (*server.Server, error) {
	return do.Invoke[*server.Server](i)
}

func provideDialer(i do.Injector) (transport.Dialer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return transport.NewDialer(cfg.WSDriver, do.MustInvoke[*slog.Logger](i))
}

func provideDirectory(i do.Injector) (*directory.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return directory.NewClient(session.HTTPBaseURL(cfg.ChatHost, cfg.ChatSecure), nil), nil
}

func provideSession(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	dialer, err := do.Invoke[transport.Dialer](i)
	if err != nil {
		return nil, err
	}
	return session.NewManager(dialer, do.MustInvoke[*directory.Client](i), session.Options{
		Host:   cfg.ChatHost,
		Secure: cfg.ChatSecure,
		Logger: do.MustInvoke[*slog.Logger](i).With("component", "session"),
	}), nil
}

func provideIdentityStore(i do.Injector) (*storage.IdentityStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return storage.NewIdentityStore(do.MustInvoke[afero.Fs](i), cfg.IdentityFile), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	s, err := server.New(do.MustInvoke[*config.Config](i), do.MustInvoke[*slog.Logger](i).With("component", "server"))
	if err != nil {
		return nil, err
	}
	s.RegisterRoutes()
	return s, nil
}
