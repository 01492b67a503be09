package main

import "carcat/cmd"

func main() {
	cmd.Execute()
}
