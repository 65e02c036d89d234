package config

import (
	"fmt"
	"os"
)

// WriteTemplate writes a commented host config to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(hostTemplate), 0o600)
}

const hostTemplate = `# plugin executable; bare names are looked up on PATH
plugin = "plugin-summary"
args = []
output_path = "gen"
timeout = "30s"
max_message_bytes = 67108864
compiler_version = "0.1.0"
metrics_textfile = ""

[document]
name = "openapi.yaml"
version = "openapi.v3"
path = "openapi.pb"

[[parameters]]
name = "lang"
value = "go"

[log]
level = "info"
file = ""
`
