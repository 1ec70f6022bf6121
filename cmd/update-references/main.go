package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boxpaint/pkg/visualtest"
)

// Simple tool to generate reference images for visual regression tests
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Reference Image Generator for boxpaint")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/update-references <scene.yaml>...")
		fmt.Println("  go run ./cmd/update-references all")
		fmt.Println()
		fmt.Println("Or use the test-based approach:")
		fmt.Println("  UPDATE_REFS=1 go test ./pkg/visualtest -run TestVisualScenes")
		os.Exit(1)
	}

	scenes := os.Args[1:]
	if len(scenes) == 1 && scenes[0] == "all" {
		var err error
		scenes, err = filepath.Glob(filepath.Join("pkg", "scene", "testdata", "*.yaml"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	for _, scenePath := range scenes {
		name := strings.TrimSuffix(filepath.Base(scenePath), filepath.Ext(scenePath))
		refPath := filepath.Join("pkg", "visualtest", "testdata", "reference", name+".png")
		if err := visualtest.UpdateReferenceImage(scenePath, refPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to generate %s: %v\n", refPath, err)
			os.Exit(1)
		}
	}
	fmt.Printf("%d reference images generated\n", len(scenes))
}
