package main

import (
	"encoding/hex"
	"strings"

	"github.com/muun/cosigner/internal/core/scheme"
	"github.com/muun/cosigner/pkg/encoding/base58"
	"github.com/muun/cosigner/pkg/encoding/bech32"
	"github.com/muun/cosigner/pkg/wallet"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var decode = cli.Command{
	Name:  "decode",
	Usage: "decode an address and print its output script",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the address to decode",
			Required: true,
		},
	},
	Action: decodeAction,
}

type decodedAddress struct {
	Type          string `json:"type"`
	Version       int    `json:"version"`
	Program       string `json:"program"`
	Encoding      string `json:"encoding,omitempty"`
	Script        string `json:"script,omitempty"`
	EncodingValid bool   `json:"encodingValid"`
}

// decodeAction accepts segwit addresses with the wrong checksum constant
// for their witness version. These are reported but never spendable to.
func decodeAction(ctx *cli.Context) error {
	net, err := wallet.NetworkByName(appConfig.Network)
	if err != nil {
		return err
	}
	addr := ctx.String("address")

	if strings.HasPrefix(strings.ToLower(addr), net.Bech32HRPSegwit+"1") {
		decoded, err := bech32.ParseSegwitAddressLenient(net.Bech32HRPSegwit, addr)
		if err != nil {
			return err
		}
		resp := decodedAddress{
			Type:          "segwit",
			Version:       int(decoded.Version),
			Program:       hex.EncodeToString(decoded.Program),
			Encoding:      decoded.Encoding.String(),
			EncodingValid: decoded.MatchesVersion(),
		}
		if !resp.EncodingValid {
			log.Warnf(
				"address uses %s for witness version %d, funds sent to it may be lost",
				decoded.Encoding, decoded.Version,
			)
		} else if script, err := scheme.AddressToScript(addr, net); err == nil {
			resp.Script = hex.EncodeToString(script)
		}
		return printJSON(resp)
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return err
	}
	resp := decodedAddress{
		Type:          "base58",
		Version:       int(version),
		Program:       hex.EncodeToString(payload),
		EncodingValid: true,
	}
	if script, err := scheme.AddressToScript(addr, net); err == nil {
		resp.Script = hex.EncodeToString(script)
	} else {
		log.WithError(err).Warn("address does not belong to the network")
	}
	return printJSON(resp)
}
