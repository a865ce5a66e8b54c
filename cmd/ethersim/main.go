// Command ethersim simulates switched Ethernet topologies.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ethersim/cmd/ethersim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
