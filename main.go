package main

import "github.com/KaramelBytes/salesdash-cli/cmd"

func main() {
	cmd.Execute()
}
