package main

import (
	"context"
	"fmt"

	"github.com/muun/cosigner/internal/core/application/recovery"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	recoveryPasswordFlag = &cli.StringFlag{
		Name:     "recovery-password",
		Usage:    "the first credential of the recovery container",
		Required: true,
	}
	recoveryCodeFlag = &cli.StringFlag{
		Name:     "recovery-code",
		Usage:    "the second credential of the recovery container",
		Required: true,
	}
	containerFlag = &cli.StringFlag{
		Name:     "container",
		Usage:    "the base58 recovery container",
		Required: true,
	}
	saltFlag = &cli.StringFlag{
		Name:     "salt",
		Usage:    "the hex salt printed along with the container",
		Required: true,
	}
)

var recoveryCmd = cli.Command{
	Name:  "recovery",
	Usage: "export and restore party keys with a password and a recovery code",
	Subcommands: []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt a party key into a recovery container",
			Flags: []cli.Flag{
				partyFlag, passwordFlag, recoveryPasswordFlag, recoveryCodeFlag,
			},
			Action: encryptRecoveryAction,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt a recovery container, optionally importing the key",
			Flags: []cli.Flag{
				containerFlag, saltFlag, recoveryPasswordFlag, recoveryCodeFlag,
				&cli.StringFlag{
					Name:  "import-party",
					Usage: "store the restored key for this party",
				},
				&cli.StringFlag{
					Name:  "new-password",
					Usage: "the passphrase protecting the imported key",
				},
			},
			Action: decryptRecoveryAction,
		},
	},
}

func encryptRecoveryAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}

	c := context.Background()
	keySvc := cfg.KeyService()
	if err := keySvc.Unlock(c, party, ctx.String(passwordFlag.Name)); err != nil {
		return err
	}
	defer keySvc.Lock(c, party)

	entry, err := cfg.RecoveryService().ExportKey(
		c, party, ctx.String(recoveryPasswordFlag.Name),
		ctx.String(recoveryCodeFlag.Name),
	)
	if err != nil {
		return err
	}
	return printJSON(entry)
}

func decryptRecoveryAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	entry := recovery.KitEntry{
		Container: ctx.String(containerFlag.Name),
		Salt:      ctx.String(saltFlag.Name),
	}
	password := ctx.String(recoveryPasswordFlag.Name)
	code := ctx.String(recoveryCodeFlag.Name)

	if partyName := ctx.String("import-party"); partyName != "" {
		party, err := domain.ParseParty(partyName)
		if err != nil {
			return err
		}
		if ctx.String("new-password") == "" {
			return &invalidUsageError{ctx, "decrypt"}
		}
		xpub, err := cfg.RecoveryService().ImportKey(
			context.Background(), party, entry, password, code,
			ctx.String("new-password"),
		)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(xpub)
		return nil
	}

	key, err := cfg.RecoveryService().RestoreKey(entry, password, code)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(key.String())
	return nil
}
