package main

import "github.com/Tiliavir/plaid/cmd"

func main() {
	cmd.Execute()
}
