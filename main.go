package main

import "nixdex/cmd"

func main() {
	cmd.Execute()
}
