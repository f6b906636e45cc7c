package main

import "genesis-intake/cmd"

func main() {
	cmd.Execute()
}
