package main

import "sim-device-platform/cmd"

func main() {
	cmd.Execute()
}
