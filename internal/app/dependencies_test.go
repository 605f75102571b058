package app

import (
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/gobychat/internal/config"
	"github.com/nfrund/gobychat/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		ChatHost:     "chat.example:9000",
		WSDriver:     "coder",
		IdentityFile: "/home/test/.gobychat/identity.json",
		DefaultRooms: []string{"general", "random"},
	}
}

func TestResolveClient(t *testing.T) {
	i := NewInjector(testConfig(), slog.Default(), afero.NewMemMapFs())

	c, err := ResolveClient(i)
	require.NoError(t, err)
	require.NotNil(t, c.Session)
	assert.Equal(t, domain.StatusDisconnected, c.Session.Status())
	assert.Equal(t, "/home/test/.gobychat/identity.json", c.Identities.Path())

	again, err := ResolveClient(i)
	require.NoError(t, err)
	assert.Same(t, c.Session, again.Session, "services are singletons")
	assert.Same(t, c.Directory, again.Directory)
}

func TestResolveClient_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.WSDriver = "carrier-pigeon"

	_, err := ResolveClient(NewInjector(cfg, slog.Default(), afero.NewMemMapFs()))
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestResolveServer(t *testing.T) {
	s, err := ResolveServer(NewInjector(testConfig(), slog.Default(), afero.NewMemMapFs()))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"general", "random"}, s.Registry.Rooms())
}
