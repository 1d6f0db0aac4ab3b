// Entry point; CLI handling lives in cmd/root.go.

package main

import (
	"github.com/conveyor-sim/conveyor-sim/cmd"
)

func main() {
	cmd.Execute()
}
