package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var submit = cli.Command{
	Name:  "submit",
	Usage: "submit a new order for execution",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Usage:    "the token to sell",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "out",
			Usage:    "the token to buy",
			Required: true,
		},
		&cli.Int64Flag{
			Name:     "amount",
			Usage:    "the amount of tokens to sell",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "the type of order",
			Value: "market",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "follow the order until it reaches a final status",
		},
	},
	Action: submitAction,
}

var get = cli.Command{
	Name:      "get",
	Usage:     "get the current state of an order",
	ArgsUsage: "<order_id>",
	Action:    getAction,
}

var watch = cli.Command{
	Name:      "watch",
	Usage:     "follow the status updates of an order",
	ArgsUsage: "<order_id>",
	Action:    watchAction,
}

func submitAction(ctx *cli.Context) error {
	client := getClient(ctx)

	reply, err := client.submitOrder(
		ctx.String("type"), ctx.String("in"), ctx.String("out"),
		ctx.Int64("amount"),
	)
	if err != nil {
		return err
	}

	printRespJSON(reply)

	if !ctx.Bool("watch") {
		return nil
	}
	orderID, _ := reply["orderId"].(string)
	return client.watchOrder(orderID, func(update map[string]interface{}) {
		printRespJSON(update)
	})
}

func getAction(ctx *cli.Context) error {
	orderID, err := orderIDArg(ctx)
	if err != nil {
		return err
	}

	reply, err := getClient(ctx).getOrder(orderID)
	if err != nil {
		return err
	}

	printRespJSON(reply)
	return nil
}

func watchAction(ctx *cli.Context) error {
	orderID, err := orderIDArg(ctx)
	if err != nil {
		return err
	}

	return getClient(ctx).watchOrder(orderID, func(update map[string]interface{}) {
		printRespJSON(update)
	})
}

func orderIDArg(ctx *cli.Context) (string, error) {
	orderID := ctx.Args().First()
	if orderID == "" {
		return "", fmt.Errorf("missing order id")
	}
	return orderID, nil
}
