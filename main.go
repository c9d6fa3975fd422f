package main

import "push-manager/cmd"

func main() {
	cmd.Execute()
}
