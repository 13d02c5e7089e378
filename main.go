package main

import (
	"musicify/cmd"
)

func main() {
	cmd.Execute()
}
