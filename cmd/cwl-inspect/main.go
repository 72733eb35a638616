package main

import "github.com/lijiang2014/cwl.inspect/frontend/cmd"

func main() {
	cmd.Execute()
}
