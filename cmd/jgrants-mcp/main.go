// cmd/jgrants-mcp/main.go
package main

func main() {
	Execute()
}
