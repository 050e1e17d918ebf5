// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/nihilok/run/cmd/run"

func main() {
	cmd.Execute()
}
