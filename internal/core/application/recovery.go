package application

import (
	"context"

	"github.com/muun/cosigner/internal/core/application/recovery"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/pkg/wallet"
)

type RecoveryService interface {
	ExportKey(
		ctx context.Context, party domain.Party, password, recoveryCode string,
	) (*recovery.KitEntry, error)
	RestoreKey(
		entry recovery.KitEntry, password, recoveryCode string,
	) (*wallet.HDPrivateKey, error)
	ImportKey(
		ctx context.Context, party domain.Party, entry recovery.KitEntry,
		password, recoveryCode, passphrase string,
	) (string, error)
}

func NewRecoveryService(
	custody ports.KeyCustody, importer recovery.KeyImporter, network string,
) (RecoveryService, error) {
	return recovery.NewService(custody, importer, network)
}
