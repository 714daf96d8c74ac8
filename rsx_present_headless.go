//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "present:headless")
}

func NewWindowPresenter(title string, status func() string) (Presenter, error) {
	return nil, ErrNoDisplay
}
