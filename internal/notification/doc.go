// Package notification はモバイル端末向け通知レコードの管理機能を提供する。
//
// サーバー側のアクターが mobile_users のユーザーに対して通知を作成し、
// モバイルクライアントが一覧取得・ページング・既読化を行う。
// 実際のプッシュ配信（FCM/APNs）は行わず、配信ワーカーが参照する
// ステータス（pending/processing/processed/failed）を記録するのみである。
//
// 構成:
//   - Store: mobile_users / mobile_notifications に対するパラメータ化クエリ
//   - Service: 入力検証と結果の整形を行う6つの操作と配信ワーカー向け操作
//   - Server: Ginのルーティングテーブルとオペコードによるディスパッチ
package notification
