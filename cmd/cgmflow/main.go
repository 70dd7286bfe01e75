// Command cgmflow solves transonic cooling-flow models of the circumgalactic
// medium over a grid of halos and inspects the stored results.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
