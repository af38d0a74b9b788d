package main

import "github.com/open-feature/flagtmpl/cmd"

func main() {
	cmd.Execute()
}
