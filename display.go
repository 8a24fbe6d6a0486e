package jsonplot

import (
	"os/exec"
	"runtime"
)

// Displayer presents a saved image to the user. It is called after the image
// has been written and recorded.
type Displayer interface {
	Display(path string) error
}

type DisplayFunc func(path string) error

func (f DisplayFunc) Display(path string) error {
	return f(path)
}

// SystemViewer opens images with the platform's default application. It does
// not wait for the viewer to exit.
type SystemViewer struct{}

func (SystemViewer) Display(path string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", ""}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, path)

	c := exec.Command(cmd, args...)
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait()

	return nil
}
