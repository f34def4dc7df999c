package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/xraph/tempo/event"
)

var errMissingID = errors.New("missing event id")

func schedule(ctx *cli.Context) error {
	eventID := ctx.Args().First()
	if eventID == "" {
		return errMissingID
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	eng, closeClient, err := openEngine(logger, nil)
	if err != nil {
		return err
	}
	defer closeClient()

	c := context.Background()
	category := event.Category(scheduleCategory)
	var ev *event.Event
	switch {
	case scheduleCron != "":
		ev, err = eng.Scheduler().ScheduleCron(c, eventID, category, scheduleCron)
	case scheduleAt != "":
		at, perr := time.Parse(time.RFC3339, scheduleAt)
		if perr != nil {
			return fmt.Errorf("--at: %w", perr)
		}
		ev, err = eng.Scheduler().ScheduleAt(c, eventID, category, at)
	default:
		ev, err = eng.Schedule(c, eventID, category, scheduleIn)
	}
	if err != nil {
		return err
	}
	return json.NewEncoder(ctx.App.Writer).Encode(ev)
}

func cancel(ctx *cli.Context) error {
	eventID := ctx.Args().First()
	if eventID == "" {
		return errMissingID
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	eng, closeClient, err := openEngine(logger, nil)
	if err != nil {
		return err
	}
	defer closeClient()

	return eng.Scheduler().Cancel(context.Background(), eventID)
}
