package main

import (
	"bitbucket.org/airenas/maiebridge/internal/app/gateway"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	gateway.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                _      __         _     __
   ____ ___  __(_)__  / /_  _____(_)___/ /___ ____
  / __ ` + "`" + `__ \/ _ \/ / _ \/ __ \/ ___/ / __  / __ ` + "`" + `/ _ \
 / / / / / /  __/ /  __/ /_/ / /  / / /_/ / /_/ /  __/
/_/ /_/ /_/\___/_/\___/_.___/_/  /_/\__,_/\__, /\___/
                     gateway v: %s       /____/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/maiebridge"))
}
