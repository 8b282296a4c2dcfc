package main

import "github.com/DrSkyle/graphwalk/cmd/graphwalk/commands"

func main() {
	commands.Execute()
}
