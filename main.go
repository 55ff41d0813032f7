package main

import (
	"github.com/lorenzo-mcc/ani-sync/cmd"
)

func main() {
	cmd.Execute()
}
