// Package main provides the tensordict CLI.
package main

import (
	"fmt"
	"os"

	"github.com/born-ml/tensordict/tensor"
	"github.com/born-ml/tensordict/tensordict"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("tensordict %s\n", version)
		return
	}
	if len(os.Args) > 1 && os.Args[1] == "demo" {
		if err := demo(); err != nil {
			fmt.Fprintf(os.Stderr, "tdinfo: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("tdinfo - tensordict structure inspector")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Build a sample container and print its structure")
}

func demo() error {
	obs, err := tensor.Zeros(tensor.Shape{32, 84, 84}, tensor.Float32)
	if err != nil {
		return err
	}
	act, err := tensor.Zeros(tensor.Shape{32}, tensor.Int64)
	if err != nil {
		return err
	}
	rew, err := tensor.Zeros(tensor.Shape{32}, tensor.Float32)
	if err != nil {
		return err
	}

	next, err := tensordict.New(map[string]tensordict.Value{
		"obs":    obs,
		"reward": rew,
	}, tensor.Shape{32})
	if err != nil {
		return err
	}
	td, err := tensordict.New(map[string]tensordict.Value{
		"obs":    obs,
		"action": act,
		"next":   next,
	}, tensor.Shape{32})
	if err != nil {
		return err
	}

	fmt.Println(td.Draw())
	fmt.Printf("compact:    %s\n", td)

	leaves, spec := td.Flatten()
	fmt.Printf("leaves:     %d\n", len(leaves))
	fmt.Printf("descriptor: %s\n", spec)
	fmt.Printf("cache key:  %016x\n", spec.Hash())
	return nil
}
