package main

import (
	"context"
	"fmt"

	"github.com/muun/cosigner/internal/core/application"
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var address = cli.Command{
	Name:  "address",
	Usage: "derive the address of the given version at a derivation path",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "version",
			Usage: "the address version, from 1 to 5",
			Value: int(domain.AddressVersionV5),
		},
		&cli.StringFlag{
			Name:     "path",
			Usage:    "the absolute derivation path, ie. m/schema:1'/recovery:1'/0/0",
			Required: true,
		},
	},
	Action: addressAction,
}

func addressAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}

	version := domain.AddressVersion(ctx.Int("version"))
	if !version.IsValid() {
		return fmt.Errorf("%w: %d", domain.ErrUnsupportedVersion, version)
	}
	addr, err := cfg.CosigningService().DeriveAddress(
		context.Background(), version, ctx.String("path"),
	)
	if err != nil {
		return err
	}
	return printJSON(application.NewAddressJSON(*addr))
}
