package main

import "redis-queue/cmd"

func main() {
	cmd.Execute()
}
