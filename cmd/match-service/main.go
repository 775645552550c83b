package main

import (
	"log"

	"github.com/eruedin/swad-core-sub002/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
