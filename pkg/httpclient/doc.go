// Package httpclient は通知サービスのAPIを呼び出すクライアントを提供する。
//
// リクエストはフォーム形式で送り、レスポンスはJSONとして受け取る。
// エラーレスポンス {"status":"error","message":...} は *APIError として返す。
package httpclient
