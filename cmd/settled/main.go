package main

import "github.com/basinledger/settled/internal/cli"

func main() {
	cli.Execute()
}
