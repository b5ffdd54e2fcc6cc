package main

import "github.com/t-beigbeder/otvl_racl/racl/cmd"

func main() {
	cmd.Execute()
}
