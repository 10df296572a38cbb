// Package clipboard copies rendered reports to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

const copyErrorFormat = "copy to clipboard: %w"

// ErrUnavailable reports that no clipboard utility is installed.
var ErrUnavailable = errors.New("clipboard unavailable")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	write func(string) error
}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{write: clipboard.WriteAll}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if clipboard.Unsupported && service.write == nil {
		return ErrUnavailable
	}
	write := service.write
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(text); err != nil {
		return fmt.Errorf(copyErrorFormat, err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
