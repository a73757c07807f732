package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/muun/cosigner/internal/core/application"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		shadow bool
	}{
		{"primary engine", false},
		{"shadow engine", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &application.Config{
				DBType:        application.DBBadger,
				Network:       "regtest",
				ScryptN:       1 << 10,
				ShadowEnabled: tt.shadow,
				Registerer:    prometheus.NewRegistry(),
			}
			require.NoError(t, cfg.Validate())
			defer cfg.Close()

			ctx := context.Background()
			mnemonic := strings.Fields(strings.Repeat("abandon ", 23) + "art")
			keySvc := cfg.KeyService()
			_, err := keySvc.InitKeys(ctx, domain.PartyUser, mnemonic, "pass")
			require.NoError(t, err)
			_, err = keySvc.InitKeys(ctx, domain.PartyService, mnemonic, "pass")
			require.NoError(t, err)

			addr, err := cfg.CosigningService().DeriveAddress(
				ctx, domain.AddressVersionV5, "m/schema:1'/recovery:1'/0/0",
			)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(addr.Address, "bcrt1p"))

			_, err = cfg.CosigningService().BroadcastPST(ctx, "id", nil)
			require.Error(t, err)

			require.NotNil(t, cfg.RecoveryService())
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  application.Config
	}{
		{"unknown db", application.Config{DBType: "pg", Network: "regtest", ScryptN: 1 << 10}},
		{"unknown network", application.Config{DBType: application.DBBadger, Network: "liquid", ScryptN: 1 << 10}},
		{"invalid scrypt N", application.Config{DBType: application.DBBadger, Network: "regtest", ScryptN: 1000}},
	}
	for _, tt := range tests {
		cfg := tt.cfg
		require.Error(t, cfg.Validate(), tt.name)
	}
}
