// Package visualtest renders scene files to PNG and compares them against
// reference images.
package visualtest

import (
	"context"
	"fmt"
	"image"

	"boxpaint/pkg/render"
	"boxpaint/pkg/scene"
)

// RenderScene rasterises a scene file at its own settings. Relative image
// sources resolve against the scene's directory.
func RenderScene(scenePath string) (image.Image, error) {
	sc, err := scene.Load(scenePath)
	if err != nil {
		return nil, err
	}
	img, err := render.RenderToImage(context.Background(), sc.Root, sc.Settings, render.WithImages(sc.Images()))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", scenePath, err)
	}
	return img, nil
}

// RenderSceneToFile renders a scene file to a PNG file
func RenderSceneToFile(scenePath, outputPath string) error {
	img, err := RenderScene(scenePath)
	if err != nil {
		return err
	}
	if err := savePNG(img, outputPath); err != nil {
		return fmt.Errorf("save error: %w", err)
	}
	return nil
}

// UpdateReferenceImage generates a new reference image
// Use this when you've intentionally changed rendering behavior
func UpdateReferenceImage(scenePath, referencePath string) error {
	fmt.Printf("Updating reference image: %s\n", referencePath)
	return RenderSceneToFile(scenePath, referencePath)
}
