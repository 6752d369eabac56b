//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/worksheethub/pkg/configs"
)

func createMySQLDialector(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:                       dsn,
		DefaultStringSize:         255,
		SkipInitializeWithVersion: false,
	})
}

func init() {
	RegisterDialectorFactory(createMySQLDialector, configs.MySQL, configs.MariaDB)
}
