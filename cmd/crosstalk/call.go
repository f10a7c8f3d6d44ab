package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	xerrors "github.com/crosstalk-rpc/crosstalk/internal/errors"
	"github.com/crosstalk-rpc/crosstalk/pkg/client"
)

func callCmd() *cobra.Command {
	var (
		url      string
		timeout  time.Duration
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "call METHOD [JSON]",
		Short: "Call a method on a server",
		Long: `Connect to a server, call one method, and print the reply.

The optional second argument is the request payload as JSON.

Examples:
  crosstalk call ping --url ws://localhost:8080/ws
  crosstalk call echo '{"hello":"world"}' --url ws://localhost:8080/ws
  crosstalk call time --url wss://localhost:8443/ws --insecure`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload json.RawMessage
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return xerrors.New("E141").
						WithDetail("Payload is not valid JSON: " + args[1]).
						WithSuggestion(`Quote the payload, e.g. '{"key":"value"}'`)
				}
				payload = json.RawMessage(args[1])
			}
			return runCall(url, args[0], payload, timeout, insecure)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "WebSocket endpoint (ws:// or wss://)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Call timeout")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip certificate verification for wss endpoints")
	cmd.MarkFlagRequired("url")

	return cmd
}

func runCall(url, method string, payload json.RawMessage, timeout time.Duration, insecure bool) error {
	c := client.New(&client.Config{
		URL:                url,
		DisableReconnect:   true,
		PingInterval:       -1,
		CallTimeout:        timeout,
		InsecureSkipVerify: insecure,
	})
	if err := c.Connect(); err != nil {
		return xerrors.FromError(err, "E100").
			WithSuggestion("Check that the server is running and the URL points at its /ws endpoint")
	}
	defer c.Close()

	result, err := c.Call(context.Background(), method, payload, timeout)
	if err != nil {
		return err
	}

	var pretty any
	if err := json.Unmarshal(result, &pretty); err == nil {
		if out, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			fmt.Println(string(out))
			return nil
		}
	}
	fmt.Println(string(result))
	return nil
}
