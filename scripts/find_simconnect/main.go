package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"swiftgo/pkg/sim/simconnect"
)

func main() {
	load := flag.Bool("load", false, "Also try to load the DLL that would be used")
	flag.Parse()

	fmt.Println("=== SimConnect.dll Detection ===")
	fmt.Println()
	found := report(os.Stdout, simconnect.DLLCandidates())
	fmt.Println()

	if found == "" {
		fmt.Println("No SimConnect.dll found. Set sim.dll_path, SIMCONNECT_DLL or MSFS_SDK.")
		os.Exit(1)
	}
	fmt.Printf("SwiftGo would use: %s\n", found)

	if *load {
		if _, err := simconnect.LoadDLL(found); err != nil {
			fmt.Printf("Loading failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Loaded OK")
	}
}

// report prints every candidate and returns the first existing one.
func report(w io.Writer, candidates []string) string {
	if len(candidates) == 0 {
		fmt.Fprintln(w, "   no candidate locations on this platform")
		return ""
	}
	first := ""
	for i, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			fmt.Fprintf(w, "%2d. ✓ FOUND: %s\n", i+1, p)
			if first == "" {
				first = p
			}
		} else {
			fmt.Fprintf(w, "%2d. ✗ NOT FOUND: %s\n", i+1, p)
		}
	}
	return first
}
