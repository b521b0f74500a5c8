package cli

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)

	successMark = stdout.String("✓").Foreground(stdout.Color("10")).String()
	errorMark   = stdout.String("✗").Foreground(stdout.Color("9")).String()
	infoMark    = stdout.String("→").Foreground(stdout.Color("12")).String()
)

func printSuccess(format string, args ...any) {
	fmt.Printf("%s %s\n", successMark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("%s %s\n", infoMark, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorMark, fmt.Sprintf(format, args...))
}
