package main

import "github.com/MeKo-Tech/blockstage/internal/cmd"

func main() {
	cmd.Execute()
}
