package main

import (
	"os"

	"github.com/idilsaglam/recur/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
