package main

import "github.com/averden/modelget/cmd"

func main() {
	cmd.Execute()
}
