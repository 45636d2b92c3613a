package cmdflags

import (
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestFlagsReadLegacyEnvironment(t *testing.T) {
	t.Setenv("YUQUE_TOKEN", "tok")
	t.Setenv("YUQUE_LOGIN", "team")
	t.Setenv("YUQUE_REPO", "handbook")
	t.Setenv("YUQUE_CACHE_TTL_MS", "1500")

	cfg := config.DefaultConfig()
	cmd := &cli.Command{
		Name:   "probe",
		Flags:  Join(Remote(&cfg), Cache(&cfg)),
		Action: func(context.Context, *cli.Command) error { return nil },
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"probe"}))

	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "team/handbook", cfg.Namespace())
	assert.Equal(t, "1500", cfg.CacheTTLRaw)
}

func TestPrepareRejectsUnknownLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "chatty"
	_, err := Prepare(context.Background(), &cfg)
	require.Error(t, err)

	cfg.LogLevel = "warn"
	ctx, err := Prepare(context.Background(), &cfg)
	require.NoError(t, err)
	assert.Same(t, &cfg, config.FromContext(ctx))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	log.SetLevel(log.InfoLevel)
}
