// Command cg scans JVM classfiles into a Class Graph and queries it.
package main

import "github.com/classgraph/classgraph/cmd/cg/cmd"

func main() {
	cmd.Execute()
}
