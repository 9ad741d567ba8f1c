package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/eigenx-merkle-distributor/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "distributor",
		Usage: "Merkle distributor tooling",
		Description: `Builds keccak256 merkle trees over beneficiary lists, produces and checks
inclusion proofs, serves proofs over HTTP and signs payout claims.

Records files are either JSON (an array of [{"type","value"}...] records) or
CSV (address,amount rows with an optional header).`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvDistributorDebug},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Build a tree and print its root with every proof",
				Flags: []cli.Flag{
					inputFlag(true),
					&cli.StringFlag{
						Name:  "output",
						Usage: "Write the result to this file instead of stdout",
					},
				},
				Action: buildCommand,
			},
			{
				Name:  "proof",
				Usage: "Print the proof for one record, by index or by address",
				Flags: []cli.Flag{
					inputFlag(true),
					&cli.IntFlag{
						Name:  "index",
						Usage: "Record index",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "address",
						Usage: "Look the record up by beneficiary address",
					},
				},
				Action: proofCommand,
			},
			{
				Name:  "verify",
				Usage: "Check a proof against a root",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "root",
						Usage:    "Merkle root (0x-prefixed hex)",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "index",
						Usage:    "Index the record was committed at",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "record",
						Usage: `Record as JSON, e.g. [{"type":"address","value":"0x.."},{"type":"uint256","value":"1"}]`,
					},
					&cli.StringFlag{
						Name:  "address",
						Usage: "Beneficiary address (with --amount, instead of --record)",
					},
					&cli.StringFlag{
						Name:  "amount",
						Usage: "Beneficiary amount (with --address, instead of --record)",
					},
					inputFlag(false),
					&cli.StringSliceFlag{
						Name:  "proof",
						Usage: "Proof hashes, leaf to root; repeat or comma separate",
					},
				},
				Action: verifyCommand,
			},
			{
				Name:  "publish",
				Usage: "Build a tree and store it in the configured persistence",
				Flags: append([]cli.Flag{
					inputFlag(true),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Human readable distribution name",
					},
				}, persistenceFlags()...),
				Action: publishCommand,
			},
			{
				Name:  "serve",
				Usage: "Serve stored distributions over HTTP",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{config.EnvDistributorPort},
					},
					&cli.Float64Flag{
						Name:    "rate-limit",
						Value:   config.DefaultRateLimit,
						Usage:   "Requests per second across all clients",
						EnvVars: []string{config.EnvDistributorRateLimit},
					},
					&cli.IntFlag{
						Name:    "rate-burst",
						Value:   config.DefaultRateBurst,
						Usage:   "Burst size for the rate limiter",
						EnvVars: []string{config.EnvDistributorRateBurst},
					},
					&cli.StringSliceFlag{
						Name:  "input",
						Usage: "Records files to publish before serving",
					},
				}, persistenceFlags()...),
				Action: serveCommand,
			},
			{
				Name:  "sign-claim",
				Usage: "Sign an EIP-191 payout claim",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Recipient address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "token",
						Usage:    "Token address (zero address for ETH)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "amount",
						Usage:    "Amount in base units",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "nonce",
						Usage: "Claim nonce",
						Value: "0",
					},
				}, signerFlags()...),
				Action: signClaimCommand,
			},
			{
				Name:  "multi-claim",
				Usage: "Collect roots, proofs, indexes and amounts for one recipient across several distributions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "recipient",
						Usage:    "Recipient address",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "input",
						Usage:    "Records files, one per distribution",
						Required: true,
					},
				},
				Action: multiClaimCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func inputFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Records file (.json or .csv)",
		Required: required,
	}
}

func persistenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "persistence-type",
			Value:   config.PersistenceTypeMemory.String(),
			Usage:   "Distribution store: memory, badger or redis",
			EnvVars: []string{config.EnvDistributorPersistenceType},
		},
		&cli.StringFlag{
			Name:    "data-path",
			Value:   config.DefaultDataPath,
			Usage:   "Badger data directory",
			EnvVars: []string{config.EnvDistributorDataPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Redis host:port",
			EnvVars: []string{config.EnvDistributorRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{config.EnvDistributorRedisPassword},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{config.EnvDistributorRedisDB},
		},
		&cli.StringFlag{
			Name:    "redis-key-prefix",
			Usage:   "Prefix for every Redis key",
			EnvVars: []string{config.EnvDistributorRedisKeyPrefix},
		},
	}
}

func signerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "signer-type",
			Value:   config.SignerTypeLocal.String(),
			Usage:   "Claim signer: local or aws-kms",
			EnvVars: []string{config.EnvDistributorSignerType},
		},
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "Hex secp256k1 private key for local signing",
			EnvVars: []string{config.EnvDistributorPrivateKey},
		},
		&cli.StringFlag{
			Name:    "kms-key-id",
			Usage:   "AWS KMS key id, ARN or alias",
			EnvVars: []string{config.EnvDistributorKMSKeyID},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region override",
			EnvVars: []string{config.EnvDistributorAWSRegion},
		},
	}
}
