package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"
)

func stats(ctx *cli.Context) error {
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
	s, err := eng.Scheduler().Stats(c)
	if err != nil {
		return err
	}
	w := ctx.App.Writer
	keys := eng.Keys()
	fmt.Fprintf(w, "index   %s\n", keys.Index)
	fmt.Fprintf(w, "queue   %s\n", keys.Queue)
	fmt.Fprintf(w, "pending %d\n", s.Pending)
	fmt.Fprintf(w, "due     %d\n", s.Due)
	fmt.Fprintf(w, "ready   %d\n", s.Ready)

	if listPending <= 0 {
		return nil
	}
	pending, err := eng.Scheduler().Pending(c, listPending)
	if err != nil {
		return err
	}
	for _, ev := range pending {
		fmt.Fprintf(w, "%s\t%s\n", ev.DueAt.Format(time.RFC3339Nano), ev.ID)
	}
	return nil
}
