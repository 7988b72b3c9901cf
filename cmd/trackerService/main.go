package main

import (
	"bitbucket.org/airenas/maiebridge/internal/app/tracker"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	tracker.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
   __                  __
  / /__________ ______/ /_____  _____
 / __/ ___/ __ ` + "`" + `/ ___/ //_/ _ \/ ___/
/ /_/ /  / /_/ / /__/ ,< /  __/ /
\__/_/   \__,_/\___/_/|_|\___/_/  v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/maiebridge"))
}
