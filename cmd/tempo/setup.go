package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/engine"
	redisstore "github.com/xraph/tempo/store/redis"
)

// parseLevel maps a level name to a slog level. "trace" is accepted as
// an alias for debug.
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func newLogger() (*slog.Logger, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(slog.String("client", clientName)), nil
}

func password() (string, error) {
	if authEnvVar == "" {
		return "", nil
	}
	pw, ok := os.LookupEnv(authEnvVar)
	if !ok {
		return "", fmt.Errorf("auth env var %s is not set", authEnvVar)
	}
	return pw, nil
}

func newRedisClient() (goredis.UniversalClient, error) {
	pw, err := password()
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(redisHost, strconv.Itoa(redisPort))
	if clusterMode {
		return goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:      []string{addr},
			Password:   pw,
			PoolSize:   poolSize,
			ClientName: clientName,
		}), nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:       addr,
		Password:   pw,
		PoolSize:   poolSize,
		ClientName: clientName,
	}), nil
}

// openEngine connects to Redis and builds an engine. The returned close
// function releases the client.
func openEngine(logger *slog.Logger, tempoOpts []tempo.Option, engineOpts ...engine.Option) (*engine.Engine, func(), error) {
	client, err := newRedisClient()
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() { _ = client.Close() }

	opts := append([]tempo.Option{
		tempo.WithStore(redisstore.New(client, redisstore.WithLogger(logger))),
		tempo.WithLogger(logger),
		tempo.WithKeyPrefix(keyPrefix),
		tempo.WithHashTag(!noHashTag),
	}, tempoOpts...)

	t, err := tempo.New(opts...)
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	eng, err := engine.Build(t, engineOpts...)
	if err != nil {
		closeClient()
		return nil, nil, err
	}
	return eng, closeClient, nil
}
