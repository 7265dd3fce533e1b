// Package broadcast publishes analysis progress to external subscribers
// over an NNG PUB socket. Consumers subscribe with plain mangos SUB
// sockets and filter on the per-analysis topic prefix.
package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/bionetlab/netcontrol/pkg/analysis"
	"github.com/bionetlab/netcontrol/pkg/logging"
	"github.com/bionetlab/netcontrol/pkg/pubsub"
)

// topicPrefix starts every frame so SUB sockets can filter per analysis
const topicPrefix = "analyses."

// Broadcaster relays bus events to an NNG PUB socket
type Broadcaster struct {
	sock   mangos.Socket
	sub    *pubsub.Subscription
	logger logging.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewBroadcaster binds a PUB socket and starts relaying every snapshot
// published on the bus.
func NewBroadcaster(listenAddr string, bus *pubsub.Bus, logger logging.Logger) (*Broadcaster, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, time.Second); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to configure PUB socket: %w", err)
	}
	if err := sock.Listen(listenAddr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	b := &Broadcaster{
		sock:   sock,
		sub:    bus.Subscribe(pubsub.Wildcard),
		logger: logger.With(logging.Component("broadcast")),
	}
	b.logger.Info("broadcast socket listening", logging.String("addr", listenAddr))

	b.wg.Add(1)
	go b.relay()
	return b, nil
}

// relay forwards bus events until the subscription closes
func (b *Broadcaster) relay() {
	defer b.wg.Done()
	for snap := range b.sub.Events() {
		frame, err := EncodeFrame(snap)
		if err != nil {
			b.logger.Error("failed to encode snapshot", logging.AnalysisID(snap.ID), logging.Error(err))
			continue
		}
		if err := b.sock.Send(frame); err != nil {
			b.logger.Warn("failed to publish snapshot", logging.AnalysisID(snap.ID), logging.Error(err))
		}
	}
}

// Close stops the relay and releases the socket
func (b *Broadcaster) Close() error {
	var err error
	b.once.Do(func() {
		b.sub.Unsubscribe()
		b.wg.Wait()
		err = b.sock.Close()
	})
	return err
}

// EncodeFrame serializes a snapshot as "analyses.<id> <json>"
func EncodeFrame(snap analysis.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(topicPrefix)+len(snap.ID)+1+len(payload))
	frame = append(frame, topicPrefix...)
	frame = append(frame, snap.ID...)
	frame = append(frame, ' ')
	frame = append(frame, payload...)
	return frame, nil
}

// Topic returns the SUB filter prefix for one analysis
func Topic(analysisID string) []byte {
	return []byte(topicPrefix + analysisID)
}

// DecodeFrame splits a frame back into its snapshot
func DecodeFrame(frame []byte) (analysis.Snapshot, error) {
	var snap analysis.Snapshot
	sep := bytes.IndexByte(frame, ' ')
	if sep < 0 || !bytes.HasPrefix(frame, []byte(topicPrefix)) {
		return snap, fmt.Errorf("malformed broadcast frame")
	}
	if err := json.Unmarshal(frame[sep+1:], &snap); err != nil {
		return snap, fmt.Errorf("malformed broadcast payload: %w", err)
	}
	return snap, nil
}
