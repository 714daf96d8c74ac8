//go:build headless

package main

import "errors"

func init() {
	compiledFeatures = append(compiledFeatures, "clipboard:unavailable")
}

func CopyToClipboard(text string) error {
	return errors.New("clipboard: not available in headless build")
}
