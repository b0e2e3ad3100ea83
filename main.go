// SPDX-License-Identifier: MPL-2.0

package main

import cmd "alfred-cli/cmd/alfred"

func main() {
	cmd.Execute()
}
