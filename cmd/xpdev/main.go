package main

import (
	"github.com/xpdev-labs/xpdev/pkg/cli"
)

func main() {
	cli.Execute()
}
