package main

import "github.com/urfave/cli/v2"

var queueStats = cli.Command{
	Name:   "stats",
	Usage:  "get the number of jobs per state",
	Action: queueStatsAction,
}

var pause = cli.Command{
	Name:   "pause",
	Usage:  "stop dispatching orders to workers",
	Action: pauseAction,
}

var resume = cli.Command{
	Name:   "resume",
	Usage:  "restart dispatching orders to workers",
	Action: resumeAction,
}

func queueStatsAction(ctx *cli.Context) error {
	reply, err := getClient(ctx).queueStats()
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func pauseAction(ctx *cli.Context) error {
	reply, err := getClient(ctx).pauseQueue()
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func resumeAction(ctx *cli.Context) error {
	reply, err := getClient(ctx).resumeQueue()
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}
