// git-as applies and clears named presets of git config. Installed on $PATH
// it is available as "git as".
package main

import (
	"os"

	"github.com/cwahbong/git-as/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		cli.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}
