// Command tempo drives a tempo deployment on Redis: it runs any mix of
// dispatcher and worker roles, schedules events and reports queue depth.
//
//	tempo --host 127.0.0.1 --name client1 run --dispatcher --worker
//	tempo schedule --in 30s invoice-1042
//	tempo stats --list 10
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

const description = `tempo schedules events for future delivery. Any number of
dispatchers promote due events from a Redis sorted set to a Redis list
inside optimistic transactions; workers pop the list.`

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tempo"
	app.HelpName = "tempo"
	app.Usage = "distributed delayed-event scheduling on Redis"
	app.UsageText = "tempo [global options] <command> [arguments...]"
	app.Description = description
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		{
			Name:        "run",
			Usage:       "run dispatcher and/or worker roles until interrupted",
			Description: runDescription,
			Action:      run,
			Flags:       runFlags,
		},
		{
			Name:      "schedule",
			Aliases:   []string{"s"},
			Usage:     "schedule one event",
			UsageText: "tempo schedule [--in <duration> | --at <time> | --cron <expr>] <event-id>",
			Action:    schedule,
			Flags:     scheduleFlags,
		},
		{
			Name:   "cancel",
			Usage:  "remove a pending event",
			Action: cancel,
		},
		{
			Name:   "stats",
			Usage:  "print pending, due and ready counts",
			Action: stats,
			Flags:  statsFlags,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tempo:", err)
		os.Exit(1)
	}
}
