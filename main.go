package main

import "github.com/crmkit/wabridge/cmd"

func main() {
	cmd.Execute()
}
