// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/go-a2a/a2a-taskserver/config"
	"github.com/go-a2a/a2a-taskserver/server/task"
)

// openStore builds the store selected by cfg. The returned func releases its
// connections.
func openStore(ctx context.Context, cfg config.Store) (task.Store, func() error, error) {
	var (
		store   task.Store
		closeFn = func() error { return nil }
	)

	switch cfg.Backend {
	case config.StoreMemory:
		store = task.NewInMemoryStore()

	case config.StoreSQLite, config.StoreMySQL:
		dialector := sqlite.Open(cfg.DSN)
		if cfg.Backend == config.StoreMySQL {
			dialector = mysql.Open(cfg.DSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
		}
		closeFn = sqlDB.Close
		ds, err := task.NewDatabaseStore(ctx, task.DatabaseStoreConfig{
			DB:          db,
			TableName:   cfg.TableName,
			CreateTable: true,
		})
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		store = ds

	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis dsn: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		rs, err := task.NewRedisStore(task.RedisStoreConfig{
			Client: client,
			Prefix: cfg.Prefix,
			TTL:    cfg.TTL,
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		store, closeFn = rs, rs.Close

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.CacheSize > 0 {
		cached, err := task.NewCachedStore(store, cfg.CacheSize)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		store = cached
	}
	return store, closeFn, nil
}
