package main

import "github.com/jaapmarcus/FOSSBilling-vesta/internal/cli"

func main() {
	cli.Execute()
}
