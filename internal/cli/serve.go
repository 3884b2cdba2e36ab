package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/nao1215/mobilenotify/internal/config"
	"github.com/nao1215/mobilenotify/internal/notification"
	"github.com/nao1215/mobilenotify/pkg/database"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notification HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("migrate") {
				migrate = cfg.Server.AutoMigrate
			}

			gin.SetMode(cfg.Server.GinMode)

			db, err := openDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := notification.Migrate(db); err != nil {
					return err
				}
			}

			store := notification.NewStore(db, notification.WithQueryTimeout(cfg.Database.QueryTimeout))
			server := notification.NewServer(notification.NewService(store), notification.Options{
				Port:           cfg.Server.Port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				TokenSecret:    cfg.Internal.TokenSecret,
			})

			log.Printf("通知サービスを起動します: :%s (driver=%s)", cfg.Server.Port, cfg.Database.Driver)
			if err := server.Run(); err != nil {
				return fmt.Errorf("通知サービスの起動に失敗: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before serving (default from server.auto_migrate)")
	return cmd
}

// openDatabase は設定に従って接続プールを開く。
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return database.Open(ctx, database.Options{
		Driver:          cfg.Driver,
		DSN:             cfg.DataSourceName(),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
}
