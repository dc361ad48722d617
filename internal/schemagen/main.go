package main

import (
	"flag"
	"log"
	"os"

	"github.com/nudgedev/nudge/pkg/config"
	"github.com/nudgedev/nudge/pkg/yaml"
)

var outFile = flag.String("o", "rule.v1beta1.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	gen := yaml.NewSchemaGenerator(config.NewDocument(),
		"github.com/nudgedev/nudge",
		"../../",
	)
	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	// Write schema.json file.
	err = os.WriteFile(*outFile, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
