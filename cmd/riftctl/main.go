// cmd/riftctl/main.go
package main

func main() {
	Execute()
}
