package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	ResultSubjectSuffix = "result"
	ErrorSubjectSuffix  = "error"
)

type Emitter interface {
	EmitResult(event ResultEvent) error
	EmitError(periodKey string, err error) error
	Close()
}

type emitter struct {
	nc            *nats.Conn
	subjectPrefix string
}

func NewEmitter(nc *nats.Conn, subjectPrefix string) Emitter {
	return &emitter{
		nc:            nc,
		subjectPrefix: subjectPrefix,
	}
}

func (e *emitter) EmitResult(event ResultEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.nc.Publish(e.subjectPrefix+"."+ResultSubjectSuffix, data)
}

func (e *emitter) EmitError(periodKey string, emitErr error) error {
	payload := map[string]string{"period": periodKey}
	if emitErr != nil {
		payload["message"] = emitErr.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return e.nc.Publish(e.subjectPrefix+"."+ErrorSubjectSuffix, data)
}

func (e *emitter) Close() {
	if e.nc != nil {
		e.nc.Drain() //nolint:errcheck
	}
}
