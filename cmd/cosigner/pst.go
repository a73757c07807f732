package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/muun/cosigner/internal/core/application"
	"github.com/urfave/cli/v2"
)

var pst = cli.Command{
	Name:  "pst",
	Usage: "co-sign partially signed transactions",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "store a new pst from its JSON form",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "file",
					Usage:    "path of the JSON pst",
					Required: true,
				},
			},
			Action: addPSTAction,
		},
		{
			Name:   "show",
			Usage:  "print the JSON form of a pst and its signing state",
			Flags:  []cli.Flag{pstIDFlag},
			Action: showPSTAction,
		},
		{
			Name:   "nonces",
			Usage:  "publish the user's musig nonces on the taproot inputs",
			Flags:  []cli.Flag{pstIDFlag},
			Action: noncesPSTAction,
		},
		{
			Name:   "verify",
			Usage:  "check a pst against the signing expectations",
			Flags:  []cli.Flag{pstIDFlag, expFlag},
			Action: verifyPSTAction,
		},
		{
			Name:   "sign",
			Usage:  "verify a pst and add the signatures of a party",
			Flags:  []cli.Flag{pstIDFlag, expFlag, partyFlag, passwordFlag},
			Action: signPSTAction,
		},
		{
			Name:   "finalize",
			Usage:  "print the serialized transaction of a completely signed pst",
			Flags:  []cli.Flag{pstIDFlag, auditExpFlag},
			Action: finalizePSTAction,
		},
		{
			Name:   "broadcast",
			Usage:  "finalize a pst and publish it",
			Flags:  []cli.Flag{pstIDFlag, auditExpFlag},
			Action: broadcastPSTAction,
		},
	},
}

func addPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(ctx.String("file"))
	if err != nil {
		return err
	}
	var pstJSON application.PSTJSON
	if err := json.Unmarshal(raw, &pstJSON); err != nil {
		return fmt.Errorf("invalid pst file: %w", err)
	}
	p, err := pstJSON.ToDomain()
	if err != nil {
		return err
	}

	id, err := cfg.CosigningService().AddPST(context.Background(), p)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(id)
	return nil
}

func showPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}

	p, err := cfg.CosigningService().GetPST(context.Background(), ctx.String(pstIDFlag.Name))
	if err != nil {
		return err
	}
	pstJSON, err := application.NewPSTJSON(p)
	if err != nil {
		return err
	}
	if err := printJSON(pstJSON); err != nil {
		return err
	}

	fmt.Printf("state: %s\n", p.State())
	fmt.Printf("fee: %s BTC\n", application.FormatBTC(p.Fee()))
	for index, parties := range p.MissingSignatures() {
		fmt.Printf("input %d is missing signatures of %v\n", index, parties)
	}
	return nil
}

func noncesPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}

	if err := cfg.CosigningService().PrepareNonces(
		context.Background(), ctx.String(pstIDFlag.Name),
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Nonces published")
	return nil
}

func verifyPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	exp, err := readExpectations(ctx.String(expFlag.Name))
	if err != nil {
		return err
	}

	if err := cfg.CosigningService().VerifyPST(
		context.Background(), ctx.String(pstIDFlag.Name), *exp,
	); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Transaction matches the expectations")
	return nil
}

func signPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	party, err := parseParty(ctx)
	if err != nil {
		return err
	}
	exp, err := readExpectations(ctx.String(expFlag.Name))
	if err != nil {
		return err
	}

	c := context.Background()
	keySvc := cfg.KeyService()
	if err := keySvc.Unlock(c, party, ctx.String(passwordFlag.Name)); err != nil {
		return err
	}
	defer keySvc.Lock(c, party)

	id := ctx.String(pstIDFlag.Name)
	if err := cfg.CosigningService().SignPST(c, id, party, *exp); err != nil {
		return err
	}

	p, err := cfg.CosigningService().GetPST(c, id)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("Signed by %s, pst is %s\n", party, p.State())
	return nil
}

func finalizePSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	exp, err := readExpectations(ctx.String(auditExpFlag.Name))
	if err != nil {
		return err
	}

	tx, err := cfg.CosigningService().FinalizePST(
		context.Background(), ctx.String(pstIDFlag.Name), exp,
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"txid": tx.Hash,
		"hex":  hex.EncodeToString(tx.Bytes),
	})
}

func broadcastPSTAction(ctx *cli.Context) error {
	cfg, err := services()
	if err != nil {
		return err
	}
	exp, err := readExpectations(ctx.String(auditExpFlag.Name))
	if err != nil {
		return err
	}

	txid, err := cfg.CosigningService().BroadcastPST(
		context.Background(), ctx.String(pstIDFlag.Name), exp,
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(txid)
	return nil
}
