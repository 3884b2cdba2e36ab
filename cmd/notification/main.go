// 通知サービスのエントリポイント。
// モバイルユーザー向けの通知を保存し、モバイルアプリからの取得・既読化に応える。
package main

import (
	"log"

	"github.com/nao1215/mobilenotify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("mobilenotify: %v", err)
	}
}
