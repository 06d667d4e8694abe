package main

import (
	"os"

	"transform-rules/internal/app"
	"transform-rules/internal/logging"
)

func main() {
	runner := app.NewAppRunner()
	code, err := runner.Run(os.Args[1:])
	if err != nil {
		logging.Logf(logging.Error, "%v", err)
	}
	os.Exit(code)
}
