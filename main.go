package main

import (
	"os"

	"github.com/sambabib/shaiscan/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
