package main

import "github.com/givepoint/donation-gateway/cmd"

func main() {
	cmd.Execute()
}
