//go:build !headless

package main

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

func init() {
	compiledFeatures = append(compiledFeatures, "clipboard:system")
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyToClipboard places text on the system clipboard.
func CopyToClipboard(text string) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("clipboard: %w", clipboardErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
