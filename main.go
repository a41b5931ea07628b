package main

import "instrument-tracker/cmd"

func main() {
	cmd.Execute()
}
