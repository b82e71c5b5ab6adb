package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/infotechlpu/ternoa-enclaves/attestation"
	"github.com/infotechlpu/ternoa-enclaves/auth"
	"github.com/infotechlpu/ternoa-enclaves/chain"
	"github.com/infotechlpu/ternoa-enclaves/cmd/flags"
	"github.com/infotechlpu/ternoa-enclaves/httpserver"
	"github.com/infotechlpu/ternoa-enclaves/storage"
)

var serverFlags = append([]cli.Flag{
	flags.ChainRPCFlag,
	flags.ListenAddrFlag,
	flags.SealPathFlag,
	flags.EnclaveIDFlag,
	flags.AdminWhitelistFlag,
	flags.AttestationFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "enclave-server",
		Usage: "Serve the TEE key-share API for secret-NFTs and capsules",
		Flags: serverFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			chainRPC := cCtx.String(flags.ChainRPCFlag.Name)
			sealPath := cCtx.String(flags.SealPathFlag.Name)
			enclaveID := cCtx.String(flags.EnclaveIDFlag.Name)
			adminWhitelist := cCtx.StringSlice(flags.AdminWhitelistFlag.Name)
			attestationType := cCtx.String(flags.AttestationFlag.Name)

			logger.Info("Connecting to chain RPC", "address", chainRPC)
			oracle, err := chain.NewClient(chainRPC, logger)
			if err != nil {
				logger.Error("Failed to connect to chain RPC", "err", err)
				return err
			}

			store, err := storage.NewSealedStore(sealPath, logger)
			if err != nil {
				logger.Error("Failed to open sealed store", "err", err)
				return err
			}

			var quotes attestation.Provider
			switch attestationType {
			case "gramine":
				quotes = attestation.NewGramineProvider(logger)
			case "tdx":
				quotes = attestation.NewTDXProvider(logger)
			default:
				logger.Error("Invalid attestation backend", "type", attestationType)
				return fmt.Errorf("invalid attestation backend: %s", attestationType)
			}

			maintenance := httpserver.NewMaintenanceFlag()
			verifier := auth.NewVerifier(oracle, logger)
			admin := auth.NewAdminVerifier(adminWhitelist, oracle, maintenance, logger)
			if len(adminWhitelist) == 0 {
				logger.Warn("No admin accounts configured, admin API will reject every request")
			}

			handler := httpserver.NewHandler(verifier, admin, store, oracle, quotes, maintenance, enclaveID, logger)

			cfg := flags.ConfigureServer(cCtx, logger)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			if m := server.Metrics(); m != nil {
				oracle.SetQueryObserver(m.ChainQueryDuration.Observe)
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
