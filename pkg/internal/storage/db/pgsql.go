//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/worksheethub/pkg/configs"
)

func createPostgresDialector(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

func init() {
	RegisterDialectorFactory(createPostgresDialector, configs.PostgreSQL, configs.Postgres, configs.Pg)
}
