package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelOperation = "operation"
	ProfilingLabelStage     = "stage"
	ProfilingLabelMerchType = "merch_type"
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
)

// MaxLabelValueLength bounds label values to keep profile cardinality low
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profiling labels
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"owner_id":   true,
	"design_id":  true,
	"session_id": true,
	"request_id": true,
	"trace_id":   true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its samples.
// Empty and high-cardinality labels are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// StageLabels labels one submission pipeline stage
func StageLabels(stage, merchType string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation: "submission_pipeline",
		ProfilingLabelStage:     stage,
		ProfilingLabelMerchType: merchType,
	}
}

// sanitizeLabels returns key/value pairs sorted by key
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if value == "" || highCardinalityLabels[key] {
			continue
		}
		key = sanitizeLabelKey(key)
		if key == "" {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps [a-z0-9_]
func sanitizeLabelKey(key string) string {
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(key))
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
