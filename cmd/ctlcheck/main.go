// Command ctlcheck explores a YAML transition system and checks CTL
// properties against every reachable state.
//
// Exit status is 0 when every checked property holds, 1 when one is
// violated and 2 on any model, formula or resource error.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
