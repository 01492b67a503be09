package utils

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// clipboardCommands lists the copy tools tried per OS, in order
var clipboardCommands = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip"}},
}

// CopyToClipboard copies text to the system clipboard. The browse view uses
// it to yank natural keys.
func CopyToClipboard(text string) error {
	argv, err := clipboardCommand(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func clipboardCommand(goos string, lookPath func(string) (string, error)) ([]string, error) {
	candidates, ok := clipboardCommands[goos]
	if !ok {
		return nil, fmt.Errorf("clipboard not supported on %s", goos)
	}

	for _, argv := range candidates {
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, fmt.Errorf("no clipboard utility found (install wl-clipboard, xclip or xsel)")
}
