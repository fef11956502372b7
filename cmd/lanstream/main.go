package main

import "github.com/nfrund/lanstream/cmd/lanstream/cmd"

func main() {
	cmd.Execute()
}
