package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// RunLoop reads command lines from r until EOF or quit, writing each
// command's output or error to w. It is the stdin transport; other
// transports call Execute directly.
func RunLoop(d *Dispatcher, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		out, err := d.Execute(scanner.Text())
		if out != "" {
			fmt.Fprintln(w, out)
		}
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
