// Where: cmd/slipway/main.go
// What: CLI entrypoint.
// Why: Execute slipway commands with configured dependencies.
package main

import (
	"os"

	"github.com/slipway-sh/slipway/internal/app"
	"github.com/slipway-sh/slipway/internal/wire"
)

func main() {
	os.Exit(app.Run(os.Args[1:], wire.BuildDependencies()))
}
