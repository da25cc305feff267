package mqtt

import (
	"encoding/json"

	"github.com/kilianp07/nemflow/core/logger"
	coremetrics "github.com/kilianp07/nemflow/core/metrics"
)

// Notifier implements the metrics sink interface and publishes the run
// summary when a run reaches Done or Failed. Stage events are not published.
type Notifier struct {
	client Publisher
	topic  string
	qos    byte
	log    logger.Logger
}

// NewNotifier creates a Notifier on the given topic.
func NewNotifier(client Publisher, topic string, qos byte, log logger.Logger) *Notifier {
	return &Notifier{client: client, topic: topic, qos: qos, log: log}
}

// runSummary is the published wire format.
type runSummary struct {
	RunID       string `json:"run_id"`
	Region      string `json:"region"`
	Outcome     string `json:"outcome"`
	FailureKind string `json:"failure_kind,omitempty"`
	Rows        int    `json:"rows"`
	DurationMS  int64  `json:"duration_ms"`
	Time        string `json:"time"`
}

// RecordStage is a no-op; only completed runs are announced.
func (n *Notifier) RecordStage(coremetrics.StageEvent) error { return nil }

// RecordRun publishes the run summary.
func (n *Notifier) RecordRun(ev coremetrics.RunEvent) error {
	payload, err := json.Marshal(runSummary{
		RunID:       ev.RunID,
		Region:      ev.Region,
		Outcome:     ev.Outcome,
		FailureKind: ev.FailureKind,
		Rows:        ev.Rows,
		DurationMS:  ev.Duration.Milliseconds(),
		Time:        ev.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}
	if err := n.client.Publish(n.topic, payload, n.qos); err != nil {
		n.log.Errorf("publish run summary: %v", err)
		return err
	}
	return nil
}

// Close disconnects the underlying client.
func (n *Notifier) Close() { n.client.Close() }

var _ coremetrics.Sink = (*Notifier)(nil)
