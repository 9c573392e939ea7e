package cmdutils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/backoffice/internal/config"
)

func TestCobraCommand(t *testing.T) {
	t.Run("creates command with correct properties", func(t *testing.T) {
		businessFunc := func(ctx context.Context, cfg *config.Config, args []string) error {
			return nil
		}

		cmd := CobraCommand("test-cmd", "short desc", "long description", businessFunc)

		assert.Equal(t, "test-cmd", cmd.Use)
		assert.Equal(t, "short desc", cmd.Short)
		assert.Equal(t, "long description", cmd.Long)
		assert.NotNil(t, cmd.RunE)
	})

	t.Run("RunE passes config and args to the business function", func(t *testing.T) {
		t.Setenv("BACKOFFICE_API_URL", "https://api.shop.example")
		t.Setenv("BACKOFFICE_STATE_DIR", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		var gotBaseURL string

		cmd := CobraCommand("test", "short", "long",
			func(ctx context.Context, cfg *config.Config, args []string) error {
				gotBaseURL = cfg.API.BaseURL
				return nil
			})

		require.NoError(t, cmd.Execute())
		assert.Equal(t, "https://api.shop.example", gotBaseURL)
	})

	t.Run("RunE returns the business error", func(t *testing.T) {
		t.Setenv("BACKOFFICE_API_URL", "https://api.shop.example")
		t.Setenv("HOME", t.TempDir())

		wantErr := errors.New("business error")

		cmd := CobraCommand("test", "short", "long",
			func(ctx context.Context, cfg *config.Config, args []string) error {
				return wantErr
			})
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		err := cmd.Execute()
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		logger  config.Logger
		wantErr bool
	}{
		{name: "text", logger: config.Logger{Level: "info", Format: "text"}},
		{name: "json debug", logger: config.Logger{Level: "debug", Format: "json"}},
		{name: "unknown level", logger: config.Logger{Level: "chatty", Format: "text"}, wantErr: true},
		{name: "unknown format", logger: config.Logger{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(&config.Config{Logger: tt.logger})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}
