package main

import "github.com/sandeepkv93/habitgarden/cmd/habitgarden/root"

func main() {
	root.Execute()
}
