package main

import "tweetgraph/hunter/cmd"

func main() {
	cmd.Execute()
}
