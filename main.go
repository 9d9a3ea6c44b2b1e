package main

import "transfer-manager/cmd"

func main() {
	cmd.Execute()
}
