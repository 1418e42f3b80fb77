package main

import (
	"github.com/cratedrop/seratosync/cmd"
	"github.com/cratedrop/seratosync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
