package main

import "github.com/frahmantamala/crm/cmd"

func main() {
	cmd.Execute()
}
