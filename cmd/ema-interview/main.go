// Command ema-interview runs a spoken mock interview in the terminal.
package main

func main() {
	Execute()
}
