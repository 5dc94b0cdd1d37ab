package main

import (
	"github.com/gasless-nft/relay/cmd/nftctl/cmd"
)

func main() {
	cmd.Execute()
}
