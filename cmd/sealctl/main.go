// sealctl is a command-line front end over pkg/sealclient: encrypt data to
// a set of key servers, or decrypt a previously-sealed envelope.
//
// Key servers are out-of-scope ledger objects in the core library; this CLI
// resolves them from a local JSON manifest file instead of a real ledger
// RPC endpoint, standing in for "the ledger client" external collaborator.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mystenlabs/seal-go/pkg/config"
	"github.com/mystenlabs/seal-go/pkg/logger"
	"github.com/mystenlabs/seal-go/pkg/sealclient"
	"github.com/mystenlabs/seal-go/pkg/session"
)

func main() {
	app := &cli.App{
		Name:  "sealctl",
		Usage: "encrypt and decrypt data under identity-based threshold encryption",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manifest", Usage: "path to a JSON key-server manifest", Required: true},
			&cli.BoolFlag{Name: "verify-key-servers", Usage: "verify each server's proof of possession", Value: true},
			&cli.IntFlag{Name: "timeout-ms", Usage: "per-server fetch_key request timeout", Value: config.DefaultTimeoutMs},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:  "encrypt",
				Usage: "encrypt data under a package/id to a threshold of key servers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "package-id", Usage: "32-byte hex package id", Required: true},
					&cli.StringFlag{Name: "id", Usage: "hex inner identity", Required: true},
					&cli.StringFlag{Name: "data", Usage: "data to encrypt (as string)", Required: true},
					&cli.StringFlag{Name: "aad", Usage: "additional authenticated data"},
					&cli.UintFlag{Name: "threshold", Usage: "number of shares required to decrypt", Required: true},
					&cli.StringFlag{Name: "dem", Usage: "aes-gcm | hmac-ctr | plain", Value: "aes-gcm"},
					&cli.StringFlag{Name: "output", Usage: "output file for the encrypted envelope (hex); stdout if empty"},
				},
				Action: encryptCommand,
			},
			{
				Name:  "decrypt",
				Usage: "decrypt a previously-sealed envelope",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "hex envelope, or path to a file containing it", Required: true},
					&cli.StringFlag{Name: "address", Usage: "wallet address the session is bound to", Required: true},
					&cli.StringFlag{Name: "wallet-seed", Usage: "32-byte hex Ed25519 seed standing in for the wallet", Required: true},
					&cli.StringFlag{Name: "package-id", Usage: "32-byte hex package id", Required: true},
					&cli.StringFlag{Name: "tx-bytes", Usage: "hex PTB bytes (intent-tagged); defaults to a single zero byte", Value: "00"},
					&cli.IntFlag{Name: "ttl-min", Usage: "session TTL in minutes [1,10]", Value: 5},
					&cli.StringFlag{Name: "output", Usage: "output file for the decrypted data; stdout if empty"},
				},
				Action: decryptCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func encryptCommand(c *cli.Context) error {
	lg, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	entries, err := loadManifest(c.String("manifest"))
	if err != nil {
		return err
	}
	servers, err := entries.keyServers()
	if err != nil {
		return err
	}

	packageID, err := decodeHex32(c.String("package-id"))
	if err != nil {
		return fmt.Errorf("invalid --package-id: %w", err)
	}
	innerID, err := hex.DecodeString(c.String("id"))
	if err != nil {
		return fmt.Errorf("invalid --id: %w", err)
	}

	demType, err := parseDemType(c.String("dem"))
	if err != nil {
		return err
	}

	fmt.Printf("encrypting to %d servers, threshold %d\n", len(servers), c.Uint("threshold"))

	client, err := sealclient.New(sealclient.Options{
		LedgerClient:    entries.ledgerClient(),
		ServerObjectIDs: entries.objectIDs(),
		Logger:          lg,
	})
	if err != nil {
		return err
	}

	var aad []byte
	if a := c.String("aad"); a != "" {
		aad = []byte(a)
	}

	result, err := client.Encrypt(sealclient.EncryptParams{
		Servers:   servers,
		DemType:   demType,
		Threshold: byte(c.Uint("threshold")),
		PackageID: packageID,
		ID:        innerID,
		Data:      []byte(c.String("data")),
		Aad:       aad,
	})
	if err != nil {
		return err
	}

	encoded := hex.EncodeToString(result.EncryptedObject)
	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(encoded), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("encrypted envelope written to %s\n", out)
	} else {
		fmt.Printf("encrypted envelope: %s\n", encoded)
	}
	fmt.Printf("   symmetric key (keep secret): %s\n", hex.EncodeToString(result.Key))
	return nil
}

func decryptCommand(c *cli.Context) error {
	lg, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	entries, err := loadManifest(c.String("manifest"))
	if err != nil {
		return err
	}

	envelopeBytes, err := readHexOrFile(c.String("data"))
	if err != nil {
		return err
	}

	packageID, err := decodeHex32(c.String("package-id"))
	if err != nil {
		return fmt.Errorf("invalid --package-id: %w", err)
	}
	txBytes, err := hex.DecodeString(c.String("tx-bytes"))
	if err != nil {
		return fmt.Errorf("invalid --tx-bytes: %w", err)
	}

	signer, err := newWalletStandIn(c.String("wallet-seed"))
	if err != nil {
		return fmt.Errorf("invalid --wallet-seed: %w", err)
	}

	sess, err := session.New(session.Options{
		Address:   c.String("address"),
		PackageID: packageID,
		TTLMin:    c.Int("ttl-min"),
		Signer:    signer,
		Verifier:  signer,
	})
	if err != nil {
		return err
	}

	verify := c.Bool("verify-key-servers")
	client, err := sealclient.New(sealclient.Options{
		LedgerClient:     entries.ledgerClient(),
		ServerObjectIDs:  entries.objectIDs(),
		VerifyKeyServers: &verify,
		TimeoutMs:        c.Int("timeout-ms"),
		Logger:           lg,
	})
	if err != nil {
		return err
	}

	fmt.Printf("decrypting with %d configured servers\n", len(entries))

	plaintext, err := client.Decrypt(context.Background(), sealclient.DecryptParams{
		Data:       envelopeBytes,
		SessionKey: sess,
		TxBytes:    txBytes,
	})
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, plaintext, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("decrypted data written to %s\n", out)
	} else {
		fmt.Printf("decrypted data: %s\n", string(plaintext))
	}
	return nil
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func readHexOrFile(s string) ([]byte, error) {
	if _, err := os.Stat(s); err == nil {
		raw, err := os.ReadFile(s)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		return hex.DecodeString(string(raw))
	}
	return hex.DecodeString(s)
}

func parseDemType(s string) (config.DemType, error) {
	switch s {
	case "aes-gcm":
		return config.DemTypeAesGcm256, nil
	case "hmac-ctr":
		return config.DemTypeHmac256Ctr, nil
	case "plain":
		return config.DemTypePlain, nil
	default:
		return "", fmt.Errorf("unknown --dem %q", s)
	}
}
