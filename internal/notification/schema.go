package notification

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nao1215/mobilenotify/pkg/migration"
)

// migrations はドライバごとのマイグレーションファイル。
// migrations/<driver>/ 配下に置き、どちらの方言も同じ番号で揃えること。
//
//go:embed migrations
var migrations embed.FS

// Migrate は接続先のドライバに対応するマイグレーションを適用する。
func Migrate(db *sqlx.DB) error {
	dir := "migrations/" + db.DriverName()
	if err := migration.Run(db.DB, migrations, dir); err != nil {
		return fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return nil
}
