package main

import (
	"github.com/klothoplatform/pdk/pkg/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.0.0-local"

func main() {
	pm := cli.PdkMain{
		Version: Version,
	}

	pm.Main()
}
