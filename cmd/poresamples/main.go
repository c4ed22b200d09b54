// cmd/poresamples/main.go
//
// Entry point for the poresamples CLI. Running it with no subcommand opens
// the sample sheet editor in the current directory.

package main

func main() {
	Execute()
}
