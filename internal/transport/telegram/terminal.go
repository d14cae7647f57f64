package telegram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// TerminalCodeAsker reads the login code from stdin, printed during the
// account's first authenticated run.
type TerminalCodeAsker struct{}

// AskCode prompts on stdout and blocks for a line of stdin input.
func (TerminalCodeAsker) AskCode(ctx context.Context) (string, error) {
	fmt.Print("enter telegram login code: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
