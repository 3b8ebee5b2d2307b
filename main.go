package main

import "github.com/inframex/pos/cmd"

func main() {
	cmd.Start()
}
