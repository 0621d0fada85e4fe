package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nftmeta/nftmeta/common"
	"github.com/nftmeta/nftmeta/nftmeta"
	"github.com/nftmeta/nftmeta/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Logger()
	fs := afero.NewOsFs()

	cmd := newCommand(fs, &logger, waitForSignal)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error().Msgf("failed to start nftmeta: %v", err)
		util.OsExit(util.ExitCodeStartFailed)
	}
}

func newCommand(fs afero.Fs, logger *zerolog.Logger, wait func(ctx context.Context, logger *zerolog.Logger)) *cli.Command {
	return &cli.Command{
		Name:    "nftmeta",
		Usage:   "NFT token and collection metadata API",
		Version: fmt.Sprintf("%s (%s)", common.NftmetaVersion, common.NftmetaCommitSha),
		Flags:   []cli.Flag{newConfigFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			logger.Info().
				Str("version", common.NftmetaVersion).
				Str("commit", common.NftmetaCommitSha).
				Msg("starting nftmeta")
			if err := nftmeta.Init(ctx, *logger, fs, configPath(cmd)); err != nil {
				return err
			}

			wait(ctx, logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "load, default and validate the configuration then exit",
				Flags: []cli.Flag{newConfigFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := nftmeta.ResolveConfig(logger, fs, configPath(cmd))
					if err != nil {
						return err
					}
					AnalyseConfig(cfg, *logger)
					return nil
				},
			},
		},
	}
}

func newConfigFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "path to the nftmeta.yaml configuration file",
	}
}

// configPath prefers --config and falls back to the first positional argument.
func configPath(cmd *cli.Command) string {
	if p := cmd.String("config"); p != "" {
		return p
	}
	if cmd.Args().Len() > 0 {
		return cmd.Args().First()
	}
	return nftmeta.DefaultConfigPath
}

func waitForSignal(ctx context.Context, logger *zerolog.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case recvSig := <-sig:
		logger.Warn().Msgf("caught signal: %v", recvSig)
	case <-ctx.Done():
	}
}
