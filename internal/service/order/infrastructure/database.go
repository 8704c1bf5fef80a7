// internal/service/order/infrastructure/database.go
package infrastructure

import (
	"strconv"
	"time"

	"gamestore/internal/pkg/bootstrap"
	"gamestore/internal/pkg/logger"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BuildDSN 拼装 MySQL DSN。cfg.DSN 不为空时直接使用。
func BuildDSN(cfg bootstrap.MySQLConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	// 让 RowsAffected 返回匹配的行数，而不是实际变化的行数
	mc.ClientFoundRows = true
	mc.Params = map[string]string{
		"charset":               "utf8mb4",
		"transaction_isolation": "'REPEATABLE-READ'",
	}
	return mc.FormatDSN()
}

// NewDatabase 打开连接池。池由调用方持有，并在关停时通过 CloseDatabase 释放。
func NewDatabase(cfg bootstrap.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(BuildDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	logger.L().Info().Str("database", cfg.Database).Msg("✅ Connected to MySQL.")
	return db, nil
}

// Migrate 创建或更新所有表
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&GameModel{},
		&OrderModel{},
		&OrderLineModel{},
		&NotificationModel{},
		&OutboxModel{},
	)
	return errors.Wrap(err, "auto migrate")
}

// CloseDatabase 是 bootstrap 关停阶段使用的适配函数
func CloseDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
