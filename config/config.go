package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"
)

type StoreKind string

const (
	StoreSQLite  StoreKind = "sqlite"
	StoreLevelDB StoreKind = "leveldb"
	StoreMemory  StoreKind = "memory"
)

type Config struct {
	Addr              string
	Store             StoreKind
	DBUrl             string
	LevelDBPath       string
	SchemaFile        string
	AutosaveDelay     time.Duration
	TokenSecret       string
	TokenTTL          time.Duration
	PatrollerUser     string
	PatrollerPassword string
	Debug             bool
	LogJSON           bool
}

func ParseFlags() (cfg Config, err error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

func Parse(fs *flag.FlagSet, args []string) (cfg Config, err error) {
	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number")
	var store string
	fs.StringVar(&store, "store", string(StoreSQLite), "report storage: sqlite, leveldb or memory")
	fs.StringVar(&cfg.DBUrl, "db-url", "patrol.sqlite", "path to SQLite3 DB file")
	fs.StringVar(&cfg.LevelDBPath, "leveldb-path", "patrol.leveldb", "LevelDB directory, with -store leveldb")
	fs.StringVar(&cfg.SchemaFile, "schema", "", "YAML report schema replacing the built-in accident report")
	var delay uint
	fs.UintVar(&delay, "autosave-delay", 500, "auto-save debounce in milliseconds")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds")
	fs.StringVar(&cfg.PatrollerUser, "patroller-user", "patrol", "patroller account user name")
	fs.StringVar(&cfg.PatrollerPassword, "patroller-password", "", "patroller account password; the account is created or updated at start")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log one JSON object per line")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.Store = StoreKind(store)
	cfg.AutosaveDelay = time.Duration(delay) * time.Millisecond
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.Store != StoreSQLite && cfg.Store != StoreLevelDB && cfg.Store != StoreMemory:
		err = fmt.Errorf("unknown -store %q", store)
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
