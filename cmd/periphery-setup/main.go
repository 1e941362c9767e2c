package main

import "github.com/moghtech/periphery-setup/cmd/periphery-setup/cmd"

func main() {
	cmd.Execute()
}
