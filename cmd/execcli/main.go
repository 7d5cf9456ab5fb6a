package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var urlFlag = cli.StringFlag{
	Name:    "url",
	Usage:   "execd daemon base url",
	Value:   "http://localhost:3000",
	EnvVars: []string{"EXECD_URL"},
}

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "execd operator CLI"
	app.Usage = "Command line interface for execd daemon operators"
	app.Flags = []cli.Flag{&urlFlag}
	app.Commands = append(
		app.Commands,
		&submit,
		&get,
		&watch,
		&queueStats,
		&pause,
		&resume,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getClient(ctx *cli.Context) *client {
	return newClient(ctx.String(urlFlag.Name))
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[execcli] %v\n", err)
	os.Exit(1)
}
