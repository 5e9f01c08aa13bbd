package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devcamper/internal/events"
	"github.com/alfredjeanlab/devcamper/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream bootcamp, course and user events from NATS",
	GroupID: "data",
	Example: `  devcamper watch
  devcamper watch --topics "devcamper.course.>"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("DEVCAMPER_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL; pass --nats, set DEVCAMPER_NATS_URL or add one to the active remote")
		}
		topics, _ := cmd.Flags().GetStringSlice("topics")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watchNATS(ctx, cmd.OutOrStdout(), natsURL, topics)
	},
}

func watchNATS(ctx context.Context, out io.Writer, natsURL string, topics []string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	merged := make(chan events.Message, 64)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer cancel()
		go func() {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-merged:
			printEvent(out, msg, time.Now())
		}
	}
}

func printEvent(w io.Writer, msg events.Message, at time.Time) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, compactJSON(msg.Data))
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n",
		ui.RenderMuted(at.Format("15:04:05")),
		ui.RenderTopic(msg.Topic),
		compactJSON(msg.Data))
}

func compactJSON(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		b, _ := json.Marshal(string(data))
		return b
	}
	return buf.Bytes()
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS server URL (default $DEVCAMPER_NATS_URL or the active remote)")
	watchCmd.Flags().StringSlice("topics", []string{events.TopicAll}, "subjects to subscribe to; NATS wildcards allowed")
}
