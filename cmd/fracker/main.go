// Command fracker runs the reference trace collector and probes trace
// backends.
package main

import "github.com/fracker/fracker/cmd/fracker/cmd"

func main() {
	cmd.Execute()
}
