// Command meetx はアクティビティ予約APIのサーバーとマイグレーションを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/meetx/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "meetx: %v\n", err)
		os.Exit(1)
	}
}
