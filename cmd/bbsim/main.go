package main

import "github.com/OpenTraceLab/OpenTraceBreadboard/cmd/bbsim/cmd"

func main() {
	cmd.Execute()
}
