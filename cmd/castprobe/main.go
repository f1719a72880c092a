// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/castprobe/main.go
// Summary: Lists currently active producers from the registry.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/framegrace/texelcast/directory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("castprobe", flag.ContinueOnError)
	prune := fs.Bool("prune", false, "Drop registrations whose segment is gone")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	reg, err := directory.OpenDefault()
	if err != nil {
		return err
	}
	defer reg.Close()

	if *prune {
		removed, err := reg.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d stale registration(s)\n", removed)
	}

	count, err := reg.Count()
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("no producers active")
		return nil
	}

	active, err := reg.ActiveName()
	if err != nil && err != directory.ErrNotFound {
		return err
	}

	for i := 0; i < count; i++ {
		name, err := reg.NameAt(i)
		if err != nil {
			return err
		}
		info, err := reg.InfoFor(name)
		if err != nil {
			return err
		}
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Printf("%s %-32s %4dx%-4d %-5s %s\n", marker, info.Name, info.Width, info.Height, info.Format, info.Handle)
	}
	return nil
}
