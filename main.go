package main

import "github.com/assetmaps/bil2asset/cmd"

func main() {
	cmd.Execute()
}
