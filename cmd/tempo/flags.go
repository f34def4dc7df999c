package main

import (
	"time"

	"github.com/urfave/cli"
)

// Global connection and logging options.
var (
	redisHost   string
	redisPort   int
	authEnvVar  string
	clientName  string
	logLevel    string
	clusterMode bool
	keyPrefix   string
	noHashTag   bool
	poolSize    int
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "host",
		Usage:       "redis host",
		Value:       "127.0.0.1",
		Destination: &redisHost,
	},
	cli.IntFlag{
		Name:        "port, p",
		Usage:       "redis port",
		Value:       6379,
		Destination: &redisPort,
	},
	cli.StringFlag{
		Name:        "auth-env, e",
		Usage:       "name of the environment variable holding the redis password (default: no auth)",
		Destination: &authEnvVar,
	},
	cli.StringFlag{
		Name:        "name, n",
		Usage:       "client name attached to every log line and redis connection",
		Value:       "client1",
		Destination: &clientName,
	},
	cli.StringFlag{
		Name:        "log-level, l",
		Usage:       "debug, info, warn or error",
		Value:       "info",
		Destination: &logLevel,
		EnvVar:      "TEMPO_LOG_LEVEL",
	},
	cli.BoolFlag{
		Name:        "cluster",
		Usage:       "connect to a redis cluster",
		Destination: &clusterMode,
	},
	cli.StringFlag{
		Name:        "prefix",
		Usage:       "key prefix of the deployment",
		Value:       "scheduler",
		Destination: &keyPrefix,
	},
	cli.BoolFlag{
		Name:        "no-hash-tag",
		Usage:       "use plain <prefix>Zset/<prefix>Queue keys instead of cluster hash tags",
		Destination: &noHashTag,
	},
	cli.IntFlag{
		Name:        "pool-size",
		Usage:       "redis connections per node",
		Value:       3,
		Destination: &poolSize,
	},
}

// run command options.
var (
	runDispatcher bool
	runWorker     bool
	demoEvents    int
	demoInterval  time.Duration
	concurrency   int
	batchSize     int
)

const runDescription = `Starts the selected roles. Unless --events is 0, it then schedules
<name>-event-<i> for i in [0, events), one per second, each due
--interval after it was scheduled, and waits for SIGINT.`

var runFlags = []cli.Flag{
	cli.BoolFlag{
		Name:        "dispatcher, d",
		Usage:       "run a dispatcher",
		Destination: &runDispatcher,
	},
	cli.BoolFlag{
		Name:        "worker, w",
		Usage:       "run a worker",
		Destination: &runWorker,
	},
	cli.IntFlag{
		Name:        "events",
		Usage:       "number of demo events to schedule",
		Value:       10,
		Destination: &demoEvents,
	},
	cli.DurationFlag{
		Name:        "interval",
		Usage:       "delay before each demo event is due",
		Value:       10 * time.Second,
		Destination: &demoInterval,
	},
	cli.IntFlag{
		Name:        "concurrency",
		Usage:       "worker consumer goroutines",
		Value:       1,
		Destination: &concurrency,
	},
	cli.IntFlag{
		Name:        "batch",
		Usage:       "events relocated per dispatcher transaction",
		Value:       1,
		Destination: &batchSize,
	},
}

// schedule command options.
var (
	scheduleIn       time.Duration
	scheduleAt       string
	scheduleCron     string
	scheduleCategory uint
)

var scheduleFlags = []cli.Flag{
	cli.DurationFlag{
		Name:        "in",
		Usage:       "delay until the event is due",
		Destination: &scheduleIn,
	},
	cli.StringFlag{
		Name:        "at",
		Usage:       "absolute due time (RFC 3339)",
		Destination: &scheduleAt,
	},
	cli.StringFlag{
		Name:        "cron",
		Usage:       "due at the next occurrence of a cron expression",
		Destination: &scheduleCron,
	},
	cli.UintFlag{
		Name:        "category, c",
		Usage:       "opaque category marker",
		Destination: &scheduleCategory,
	},
}

// stats command options.
var listPending int64

var statsFlags = []cli.Flag{
	cli.Int64Flag{
		Name:        "list",
		Usage:       "also print up to N pending events",
		Destination: &listPending,
	},
}
