package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/feedback"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// SendCmd submits feedback about a page through the capture client.
var SendCmd = &cobra.Command{
	Use:   "send <url>",
	Short: "Submit feedback for a page",
	Long: `Open the page in headless Chrome and submit feedback about it.

Without --agree only the given fields are sent. With --agree the environment
snapshot (screenshot, navigator, cookies, console logs, service workers) is
attached as well.

With --kafka-brokers the payload is published to Kafka instead of posted over
HTTP; --api-url then names the topic.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	addBrowserFlags(SendCmd)
	f := SendCmd.Flags()
	f.String("api-key", "", "API key")
	f.String("api-url", config.DefaultAPIURL, "Collector endpoint")
	f.StringP("message", "m", "", "Feedback message")
	f.Int("rating", 0, "Rating from 1 to 5")
	f.Bool("agree", false, "Attach the environment snapshot")
	f.String("error", "", "Report an error message instead of feedback")
	f.StringArray("data", nil, "Extra data as key=value (repeatable)")
	f.String("kafka-brokers", "", "Publish to these Kafka brokers instead of HTTP")
	f.Duration("timeout", 30*time.Second, "Submission timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	log := logger.Named("send")
	cfg, err := config.Load(settings())
	if err != nil {
		return err
	}

	var sink transport.Transport
	if brokers := settings().GetString("kafka.brokers"); brokers != "" {
		k := transport.NewKafka(transport.NewKafkaWriter(strings.Split(brokers, ",")), log)
		defer k.Close()
		sink = k
	} else {
		sink = transport.NewHTTP(&http.Client{}, log)
	}

	s, err := openPage(cmd, args[0], cfg.Log, log)
	if err != nil {
		return err
	}
	defer s.cancel()

	client, err := feedback.NewClient(cfg, func() feedback.SnapshotCollector {
		return s.collector(log)
	}, sink, log)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var result *transport.Result
	if msg, _ := cmd.Flags().GetString("error"); msg != "" {
		result, err = client.SendError(ctx, msg)
	} else {
		fields, extra, ferr := formFromFlags(cmd)
		if ferr != nil {
			return ferr
		}
		result, err = client.SendFeedbackFromModal(ctx, fields, extra, nil, screenshotConfig(cmd))
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func formFromFlags(cmd *cobra.Command) ([]model.FormField, []model.DataItem, error) {
	f := cmd.Flags()
	var fields []model.FormField

	if message, _ := f.GetString("message"); message != "" {
		fields = append(fields, model.FormField{ID: "message", Label: "Message", Type: model.FieldTextarea, Value: message})
	}
	if rating, _ := f.GetInt("rating"); rating != 0 {
		if rating < 1 || rating > model.DefaultRatingMax {
			return nil, nil, errors.Newf("rating must be between 1 and %d", model.DefaultRatingMax)
		}
		fields = append(fields, model.FormField{ID: "rating", Label: "Rating", Type: model.FieldRating, Value: rating})
	}
	agree, _ := f.GetBool("agree")
	fields = append(fields, model.FormField{
		ID:    model.AgreementFieldID,
		Label: "Attach technical data",
		Type:  model.FieldCheckbox,
		Value: agree,
	})

	pairs, _ := f.GetStringArray("data")
	extra := make([]model.DataItem, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, nil, errors.Newf("invalid --data %q, want key=value", pair)
		}
		extra = append(extra, model.DataItem{ID: key, Value: value})
	}
	return fields, extra, nil
}
