// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/hardcopy/hardcopy/cmd/hardcopy"

func main() {
	cmd.Execute()
}
