package main

import (
	"flag"
	"log"

	"github.com/danmuck/pluginwire/internal/config"
)

const defaultPath = "cmd/pluginctl/config.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for the host config template")
	validate := flag.Bool("validate", false, "validate an existing host config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadHostConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated host config at %s (plugin=%s output_path=%s parameters=%d)",
			*input, cfg.Plugin, cfg.OutputPath, len(cfg.Parameters))
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote host config template to %s", *output)
}
