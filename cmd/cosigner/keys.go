package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var keys = cli.Command{
	Name:  "keys",
	Usage: "manage the keys of the two parties",
	Subcommands: []*cli.Command{
		{
			Name:   "genseed",
			Usage:  "generate a mnemonic seed",
			Action: genSeedAction,
		},
		{
			Name:  "init",
			Usage: "derive a party key from a mnemonic and store it encrypted",
			Flags: []cli.Flag{
				partyFlag,
				passwordFlag,
				&cli.StringFlag{
					Name:     "mnemonic",
					Usage:    "the space separated mnemonic of the party",
					Required: true,
				},
			},
			Action: initKeysAction,
		},
		{
			Name:   "unlock",
			Usage:  "check the passphrase of a party key",
			Flags:  []cli.Flag{partyFlag, passwordFlag},
			Action: unlockKeysAction,
		},
		{
			Name:  "changepassword",
			Usage: "re-encrypt a party key with a new passphrase",
			Flags: []cli.Flag{
				partyFlag,
				passwordFlag,
				&cli.StringFlag{
					Name:     "new-password",
					Usage:    "the new passphrase",
					Required: true,
				},
			},
			Action: changePasswordAction,
		},
		{
			Name:   "show",
			Usage:  "print the extended public key of a party",
			Flags:  []cli.Flag{partyFlag},
			Action: showKeysAction,
		},
	},
}

func genSeedAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	mnemonic, err := cfg.KeyService().GenSeed(context.Background())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))
	return nil
}

func initKeysAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}

	xpub, err := cfg.KeyService().InitKeys(
		context.Background(), party, strings.Fields(ctx.String("mnemonic")),
		ctx.String(passwordFlag.Name),
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(xpub)
	return nil
}

func unlockKeysAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}

	if err := cfg.KeyService().Unlock(
		context.Background(), party, ctx.String(passwordFlag.Name),
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s key is unlocked\n", party)
	return nil
}

func changePasswordAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}

	if err := cfg.KeyService().ChangePassphrase(
		context.Background(), party, ctx.String(passwordFlag.Name),
		ctx.String("new-password"),
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Password changed")
	return nil
}

func showKeysAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}

	key, err := cfg.KeyService().PublicKey(context.Background(), party)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(key.String())
	return nil
}
