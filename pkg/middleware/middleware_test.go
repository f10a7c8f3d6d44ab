package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crosstalk-rpc/crosstalk/pkg/channel"
	"github.com/crosstalk-rpc/crosstalk/pkg/protocol"
)

func invoke(interceptor channel.Interceptor, method string, h channel.Handler) (any, error) {
	wrapped := interceptor(h)
	return wrapped(context.Background(), &channel.Request{Method: method})
}

func TestPrometheusCollects(t *testing.T) {
	reg := prometheus.NewRegistry()
	interceptor := Prometheus(WithRegistry(reg), WithNamespace("test"))

	ok := func(ctx context.Context, req *channel.Request) (any, error) {
		return "fine", nil
	}
	fail := func(ctx context.Context, req *channel.Request) (any, error) {
		return nil, errors.New("boom")
	}

	if result, err := invoke(interceptor, "echo", ok); err != nil || result != "fine" {
		t.Fatalf("interceptor altered success path: result=%v err=%v", result, err)
	}
	if _, err := invoke(interceptor, "echo", fail); err == nil {
		t.Fatal("interceptor swallowed the handler error")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, want := range []string{
		"test_requests_total",
		"test_request_duration_seconds",
		"test_request_errors_total",
	} {
		if !found[want] {
			t.Errorf("metric %s not registered; got %v", want, found)
		}
	}

	for _, mf := range families {
		if mf.GetName() != "test_requests_total" {
			continue
		}
		var ok, errored float64
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" {
					switch l.GetValue() {
					case "ok":
						ok = m.GetCounter().GetValue()
					case "error":
						errored = m.GetCounter().GetValue()
					}
				}
			}
		}
		if ok != 1 || errored != 1 {
			t.Errorf("requests_total ok=%v error=%v, want 1 and 1", ok, errored)
		}
	}
}

func TestErrorType(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: no response to %q", channel.ErrTimeout, "slow"), "timeout"},
		{context.DeadlineExceeded, "timeout"},
		{&channel.RemoteError{Code: protocol.StatusNotFound, Message: "method 'x' not found"}, "not_found"},
		{&channel.RemoteError{Code: protocol.StatusHandlerError, Message: "boom"}, "remote"},
		{context.Canceled, "canceled"},
		{channel.ErrClosed, "closed"},
		{channel.ErrNotConnected, "closed"},
		{errors.New("boom"), "handler"},
	}
	for _, tc := range cases {
		if got := errorType(tc.err); got != tc.want {
			t.Errorf("errorType(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestOpenTelemetryPassthrough(t *testing.T) {
	interceptor := OpenTelemetry(WithTracerName("test"))

	result, err := invoke(interceptor, "echo", func(ctx context.Context, req *channel.Request) (any, error) {
		if ctx == nil {
			t.Error("handler received nil context")
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Errorf("success passthrough: result=%v err=%v", result, err)
	}

	wantErr := errors.New("kaput")
	_, err = invoke(interceptor, "echo", func(ctx context.Context, req *channel.Request) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error passthrough: err=%v", err)
	}
}

func TestOpenTelemetryFilter(t *testing.T) {
	skipped := OpenTelemetry(WithRequestFilter(func(req *channel.Request) bool {
		return !strings.HasPrefix(req.Method, "internal.")
	}))

	called := false
	_, err := invoke(skipped, "internal.health", func(ctx context.Context, req *channel.Request) (any, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("filtered request failed: %v", err)
	}
	if !called {
		t.Error("filtered request never reached the handler")
	}
}
