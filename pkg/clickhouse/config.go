package clickhouse

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Settings describes the bar archive connection. Zero values fall back to
// the defaults applied by Open.
type Settings struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	UseHTTP  bool

	// Compression is the block codec negotiated with the server: lz4, zstd or none.
	Compression string

	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	MaxExecutionTime time.Duration

	Pool Pool
}

// Pool sizes the database/sql pool. The archive sees one writer per bar and
// a single warm-up read, so it stays small.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func (s Settings) withDefaults() Settings {
	if s.Port == 0 {
		s.Port = 9000
		if s.UseHTTP {
			s.Port = 8123
		}
	}
	if s.Database == "" {
		s.Database = "default"
	}
	if s.Compression == "" {
		s.Compression = "lz4"
	}
	if s.DialTimeout <= 0 {
		s.DialTimeout = 5 * time.Second
	}
	if s.Pool.MaxOpen <= 0 {
		s.Pool.MaxOpen = 4
	}
	if s.Pool.MaxIdle <= 0 || s.Pool.MaxIdle > s.Pool.MaxOpen {
		s.Pool.MaxIdle = s.Pool.MaxOpen
	}
	if s.Pool.MaxLifetime <= 0 {
		s.Pool.MaxLifetime = 5 * time.Minute
	}
	return s
}

func (s Settings) validate() error {
	if s.Host == "" {
		return fmt.Errorf("host is required")
	}
	switch s.Compression {
	case "lz4", "zstd", "none":
	default:
		return fmt.Errorf("unsupported compression %q", s.Compression)
	}
	return nil
}

// DSN renders the clickhouse-go connection string. Credentials are escaped;
// max_execution_time is sent as a server setting in whole seconds.
func (s Settings) DSN() string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   "/" + s.Database,
	}
	if s.UseHTTP {
		u.Scheme = "http"
	}
	if s.User != "" || s.Password != "" {
		u.User = url.UserPassword(s.User, s.Password)
	}

	q := url.Values{}
	if s.Compression != "" && s.Compression != "none" {
		q.Set("compress", s.Compression)
	}
	if s.DialTimeout > 0 {
		q.Set("dial_timeout", s.DialTimeout.String())
	}
	if s.ReadTimeout > 0 {
		q.Set("read_timeout", s.ReadTimeout.String())
	}
	if s.MaxExecutionTime > 0 {
		q.Set("max_execution_time", strconv.Itoa(int(s.MaxExecutionTime.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
