package main

import "github.com/mattcarp/aoma-mesh-mcp-sub010/cmd"

// Version can be set during build with -ldflags
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
