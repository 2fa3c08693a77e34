package main

import "github.com/user/mockshop/cmd"

func main() {
	cmd.Execute()
}
