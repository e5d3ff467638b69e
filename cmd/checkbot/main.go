package main

import (
	"log"

	corecmd "github.com/m3rciful/checkbot/core/cmd"
	"github.com/m3rciful/checkbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("checkbot: %v", err)
	}
}
