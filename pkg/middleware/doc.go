// Package middleware は通知APIで使用するGinミドルウェアを提供する。
//
// パニックリカバリ、CORS、リクエストIDの付与、内部API向けの
// サービストークン検証を含む。エラー時のレスポンスはすべて
// {"status":"error","message":...} の形式に揃える。
package middleware
