package main

import "github.com/hubtools/space-restart/cmd"

func main() {
	cmd.Execute()
}
