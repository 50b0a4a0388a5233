// Command recur is also installable from the module root:
//
//	go install github.com/idilsaglam/recur@latest
package main

import (
	"os"

	"github.com/idilsaglam/recur/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
