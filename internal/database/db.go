// Package database opens the MySQL handle used by the repositories and
// applies the embedded schema.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Settings describes how to reach MySQL.
type Settings struct {
	User string
	Pass string
	Host string
	Port string
	Name string

	// ConnectTimeout bounds the whole connect phase, retries included.
	ConnectTimeout time.Duration
}

// DSN renders the driver connection string.  Times are parsed into
// time.Time and read back in UTC.
func DSN(s Settings) string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(s.Host, s.Port)
	cfg.DBName = s.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open connects to MySQL, retrying the initial ping with exponential
// backoff until ConnectTimeout elapses.
func Open(ctx context.Context, s Settings, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(s))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	err = backoff.RetryNotify(func() error {
		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		defer cancelPing()
		if err := db.PingContext(pingCtx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		log.Warn("mysql not reachable, retrying",
			zap.String("addr", net.JoinHostPort(s.Host, s.Port)),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("mysql connected", zap.String("database", s.Name))
	return db, nil
}
