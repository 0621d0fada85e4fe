//go:build pprof

package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
)

func init() {
	addr := os.Getenv("NFTMETA_PPROF_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6060"
	}
	go func() {
		runtime.SetBlockProfileRate(1)
		log.Info().Msgf("pprof server started at http://%s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error().Err(err).Msg("pprof server stopped")
		}
	}()
}
