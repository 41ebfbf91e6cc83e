// Command mmbridge runs bus width adapter scenarios.
package main

import (
	"github.com/sarchlab/mmbridge/mmbridge/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
