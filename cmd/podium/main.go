// Command podium is an interview practice tool: it records spoken answers
// from the camera and microphone and reads back scored feedback.
package main

import "github.com/podium-dev/podium/internal/cli"

func main() {
	cli.Execute()
}
