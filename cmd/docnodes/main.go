package main

import "github.com/dgallion1/docnodes/internal/cli"

func main() {
	cli.Execute()
}
