package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqweek/dialog"
)

// choosePaths returns the song paths either from the command-line args
// or from an interactive file dialog.
func choosePaths(cwd string, args []string) ([]string, error) {
	// If arguments were passed to the program, use them.
	if len(args) > 0 {
		paths := make([]string, 0, len(args))
		for _, path := range args {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("cannot get absolute path: %w", err)
			}
			if err := validatePath(absPath); err != nil {
				return nil, fmt.Errorf("passed argument %q is not a valid path: %w", path, err)
			}
			paths = append(paths, absPath)
		}
		return paths, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open Organya song").
		Filter("Organya songs (*.org)", "org").
		Filter("All files", "*").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return nil, dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return nil, fmt.Errorf("dialog selection invalid: %w", err)
	}
	return []string{absPath}, nil
}

// validatePath checks that a song file exists. The game ships its songs without an extension,
// so only a wrong extension is rejected.
func validatePath(p string) error {
	if ext := strings.ToLower(filepath.Ext(p)); ext != "" && ext != ".org" {
		return fmt.Errorf("file must have .org extension or none")
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", p)
	}
	return nil
}
