package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"

	"yolo-backend/internal/core/config"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

const slowQuery = 200 * time.Millisecond

// NewGorm 按 driver 打开连接；SQL 日志经 zap 输出
func NewGorm(c config.DB, l *zap.Logger) (*gorm.DB, error) {
	if l == nil {
		l = zap.NewNop()
	}
	dial, err := dialector(c, l)
	if err != nil {
		return nil, err
	}

	std, err := zap.NewStdLogAt(l.Named("gorm").WithOptions(zap.WithCaller(false)), zapcore.WarnLevel)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: glog.New(std, glog.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormLevel(c.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:            c.Driver != "sqlite",
		CreateBatchSize:        200,
		SkipDefaultTransaction: true, // 需要原子性的地方显式开事务
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	open, idle := c.MaxOpenConns, c.MaxIdleConns
	if c.Driver == "sqlite" {
		// sqlite 单写者，多连接只会带来 database is locked
		open, idle = 1, 1
	}
	sqlDB.SetMaxOpenConns(open)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeMin) * time.Minute)
	return db, nil
}

func dialector(c config.DB, l *zap.Logger) (gorm.Dialector, error) {
	switch c.Driver {
	case "postgres":
		return postgres.Open(c.DSN), nil
	case "mysql":
		dsn := normalizeMySQLDSN(c.DSN, c.Username, c.Password)
		l.Info("mysql dsn", zap.String("dsn", maskDSN(dsn)))
		return mysql.Open(dsn), nil
	case "sqlite":
		// 纯 Go 实现，无需 cgo
		return sqlite.Open(c.DSN), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
}

func gormLevel(s string) glog.LogLevel {
	switch s {
	case "silent":
		return glog.Silent
	case "error":
		return glog.Error
	case "info":
		return glog.Info
	}
	return glog.Warn
}

// maskDSN user:pass@tcp(...) → user:****@tcp(...)
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	colon := strings.Index(dsn[:at], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:colon+1] + "****" + dsn[at:]
}

// JDBC 参数 → go-sql-driver 参数
var jdbcParams = map[string]string{
	"characterEncoding": "charset",
	"serverTimezone":    "loc",
	"useSSL":            "tls",
}

var jdbcDropped = []string{"useUnicode", "zeroDateTimeBehavior"}

// normalizeMySQLDSN 把 mysql:// 或 jdbc:mysql:// 形式的 URL 改写为
// user:pass@tcp(host)/db?...；原生 DSN 原样返回
func normalizeMySQLDSN(in, user, pass string) string {
	in = strings.TrimPrefix(strings.TrimSpace(in), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in
	}

	q := u.Query()
	var urlUser, urlPass string
	if u.User != nil {
		urlUser = u.User.Username()
		urlPass, _ = u.User.Password()
	}
	urlUser = firstNonEmpty(user, q.Get("user"), urlUser)
	urlPass = firstNonEmpty(pass, q.Get("password"), urlPass)
	q.Del("user")
	q.Del("password")

	for from, to := range jdbcParams {
		v := q.Get(from)
		q.Del(from)
		if v == "" || q.Get(to) != "" {
			continue
		}
		if from == "useSSL" {
			v = tlsMode(v)
		}
		q.Set(to, v)
	}
	for _, k := range jdbcDropped {
		q.Del(k)
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	var b strings.Builder
	if urlUser != "" {
		b.WriteString(urlUser)
		if urlPass != "" {
			b.WriteString(":" + urlPass)
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s)/%s", u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		b.WriteString("?" + enc)
	}
	return b.String()
}

func tlsMode(useSSL string) string {
	switch strings.ToLower(useSSL) {
	case "true", "1":
		return "true"
	case "skip-verify", "preferred":
		return strings.ToLower(useSSL)
	}
	return "false"
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
