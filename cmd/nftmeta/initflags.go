//go:build !test

package main

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	// NFTMETA_NOLOGS=1 silences all zerolog output
	if os.Getenv("NFTMETA_NOLOGS") == "1" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		log.Logger = zerolog.New(io.Discard)
	}

	// NFTMETA_NOMETRICS=1 swaps the default registry for an empty one so
	// metric registration still succeeds but nothing is exported.
	if os.Getenv("NFTMETA_NOMETRICS") == "1" {
		r := prometheus.NewRegistry()
		prometheus.DefaultRegisterer = r
		prometheus.DefaultGatherer = r
	}
}
