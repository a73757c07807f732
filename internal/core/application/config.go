package application

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/muun/cosigner/internal/core/application/cosigning"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/muun/cosigner/internal/core/shadow"
	"github.com/muun/cosigner/internal/core/signer"
	"github.com/muun/cosigner/internal/infrastructure/broadcaster/esplora"
	"github.com/muun/cosigner/internal/infrastructure/observer"
	"github.com/muun/cosigner/internal/infrastructure/refengine"
	dbbadger "github.com/muun/cosigner/internal/infrastructure/storage/db/badger"
	"github.com/muun/cosigner/pkg/wallet"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	DBBadger = "badger"

	defaultBroadcastTimeout = 15 * time.Second
)

var (
	SupportedDBType = map[string]struct{}{
		DBBadger: {},
	}
)

type Config struct {
	DBType   string
	DBConfig interface{}

	Network          string
	ScryptN          int
	ShadowEnabled    bool
	EsploraURL       string
	BroadcastTimeout time.Duration
	Registerer       prometheus.Registerer

	repo      ports.RepoManager
	engine    ports.Engine
	auditor   cosigning.Auditor
	keys      KeyService
	cosigning CosigningService
	recovery  RecoveryService
}

func (c *Config) Validate() error {
	if _, ok := SupportedDBType[c.DBType]; !ok {
		return fmt.Errorf("db type not supported, must be one of %v", SupportedDBType)
	}
	if _, err := c.network(); err != nil {
		return err
	}
	if c.ScryptN <= 1 || c.ScryptN&(c.ScryptN-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of 2 greater than 1")
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.signingEngine(); err != nil {
		return err
	}
	return nil
}

// Close releases the database, if it was opened.
func (c *Config) Close() {
	if c.repo != nil {
		c.repo.Close()
		c.repo = nil
	}
}

func (c *Config) RepoManager() ports.RepoManager {
	repo, _ := c.repoManager()
	return repo
}

func (c *Config) KeyService() KeyService {
	svc, _ := c.keyService()
	return svc
}

func (c *Config) CosigningService() CosigningService {
	svc, _ := c.cosigningService()
	return svc
}

func (c *Config) RecoveryService() RecoveryService {
	svc, _ := c.recoveryService()
	return svc
}

func (c *Config) network() (*chaincfg.Params, error) {
	return wallet.NetworkByName(c.Network)
}

func (c *Config) repoManager() (ports.RepoManager, error) {
	if c.repo == nil {
		if c.DBType == DBBadger {
			datadir, _ := c.DBConfig.(string)
			repoManager, err := dbbadger.NewRepoManager(datadir, log.New())
			if err != nil {
				return nil, err
			}
			c.repo = repoManager
		}
	}
	return c.repo, nil
}

func (c *Config) signingEngine() (ports.Engine, error) {
	if c.engine == nil {
		net, err := c.network()
		if err != nil {
			return nil, err
		}
		primary, err := signer.NewEngine(net)
		if err != nil {
			return nil, err
		}
		if !c.ShadowEnabled {
			c.engine = primary
			return c.engine, nil
		}

		verifier, err := signer.NewVerifier(net)
		if err != nil {
			return nil, err
		}
		obs, err := observer.NewObserver(c.Registerer)
		if err != nil {
			return nil, err
		}
		engine, err := shadow.NewEngine(
			primary, refengine.NewAdapter(net), obs, shadow.WithAuditor(verifier),
		)
		if err != nil {
			return nil, err
		}
		c.engine = engine
		c.auditor = engine
	}
	return c.engine, nil
}

func (c *Config) broadcaster() (ports.Broadcaster, error) {
	if c.EsploraURL == "" {
		return nil, nil
	}
	timeout := c.BroadcastTimeout
	if timeout <= 0 {
		timeout = defaultBroadcastTimeout
	}
	return esplora.NewService(c.EsploraURL, timeout)
}

func (c *Config) keyService() (KeyService, error) {
	if c.keys == nil {
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		svc, err := NewKeyService(repo, c.Network, c.ScryptN)
		if err != nil {
			return nil, err
		}
		c.keys = svc
	}
	return c.keys, nil
}

func (c *Config) cosigningService() (CosigningService, error) {
	if c.cosigning == nil {
		net, err := c.network()
		if err != nil {
			return nil, err
		}
		repo, err := c.repoManager()
		if err != nil {
			return nil, err
		}
		keySvc, err := c.keyService()
		if err != nil {
			return nil, err
		}
		engine, err := c.signingEngine()
		if err != nil {
			return nil, err
		}
		coordinator, err := signer.NewCoordinator(net)
		if err != nil {
			return nil, err
		}
		verifier, err := signer.NewVerifier(net)
		if err != nil {
			return nil, err
		}
		broadcaster, err := c.broadcaster()
		if err != nil {
			return nil, err
		}

		svc, err := NewCosigningService(
			repo, keySvc, engine, coordinator, verifier, broadcaster, c.auditor,
		)
		if err != nil {
			return nil, err
		}
		c.cosigning = svc
	}
	return c.cosigning, nil
}

func (c *Config) recoveryService() (RecoveryService, error) {
	if c.recovery == nil {
		keySvc, err := c.keyService()
		if err != nil {
			return nil, err
		}
		svc, err := NewRecoveryService(keySvc, keySvc, c.Network)
		if err != nil {
			return nil, err
		}
		c.recovery = svc
	}
	return c.recovery, nil
}
