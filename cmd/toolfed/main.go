// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// toolfed runs and drives federated tool namespaces.
package main

import (
	"context"
	"os"

	"github.com/bureau-foundation/toolfed/cmd/toolfed/commands"
	"github.com/bureau-foundation/toolfed/lib/process"
)

func main() {
	if err := commands.Root().Execute(context.Background(), os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}
