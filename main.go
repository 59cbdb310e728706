package main

import "github.com/agentic-research/vaultpatch/cmd"

func main() {
	cmd.Execute()
}
