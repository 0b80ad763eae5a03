package push_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

type sendCall struct {
	Token string
	Title string
	Body  string
	Data  map[string]any
}

// fakeProvider records every Send and answers with a fixed result.
type fakeProvider struct {
	mu     sync.Mutex
	calls  []sendCall
	result push.SendResult
}

func succeeding() *fakeProvider { return &fakeProvider{result: push.SendResult{Success: true}} }

func failing(errText string) *fakeProvider {
	return &fakeProvider{result: push.SendResult{Error: errText}}
}

func (f *fakeProvider) Send(_ context.Context, token, title, body string, data map[string]any) push.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{Token: token, Title: title, Body: body, Data: data})
	return f.result
}

func (f *fakeProvider) Calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.calls...)
}

// countingDeviceStore wraps a MemoryStore and counts deletions that actually
// removed a row.
type countingDeviceStore struct {
	*push.MemoryStore
	mu      sync.Mutex
	removed atomic.Int32
	deletes atomic.Int32
}

func (c *countingDeviceStore) DeleteDevice(ctx context.Context, userID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletes.Add(1)
	rows, err := c.MemoryStore.ListDevices(ctx, userID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Token == token {
			c.removed.Add(1)
			break
		}
	}
	return c.MemoryStore.DeleteDevice(ctx, userID, token)
}

// recordingObserver counts observer events.
type recordingObserver struct {
	mu      sync.Mutex
	denied  []string
	sent    int
	failed  []push.Category
	evicted int
}

func (o *recordingObserver) Denied(_ context.Context, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.denied = append(o.denied, reason)
}

func (o *recordingObserver) Sent(context.Context, push.Platform) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent++
}

func (o *recordingObserver) Failed(_ context.Context, _ push.Platform, c push.Category) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, c)
}

func (o *recordingObserver) Evicted(context.Context, push.Platform) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evicted++
}
