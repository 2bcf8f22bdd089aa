package main

import "github.com/KaramelBytes/tailcut-cli/cmd"

func main() {
	cmd.Execute()
}
