package main

import (
	"github.com/ethpandaops/validator-exit/cmd"
)

func main() {
	cmd.Execute()
}
