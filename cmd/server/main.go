// Command server は従業員管理APIサーバーのエントリーポイント。
//
// 使い方:
//
//	server [serve|migrate|provision|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/empdesk/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
