package main

import "github.com/Builder-Lawyers/hosting-backend/cmd"

func main() {
	cmd.Execute()
}
