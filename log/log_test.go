// Copyright 2024 The go-assetcar Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package log

import "testing"

type recordingLogger struct {
	records [][]interface{}
}

func (r *recordingLogger) Log(keyvals ...interface{}) error {
	r.records = append(r.records, keyvals)
	return nil
}

func TestFilterDropsBelowThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold Level
		emit      Level
		want      bool
	}{
		{"debug dropped at warn threshold", LevelWarn, LevelDebug, false},
		{"warn passes at warn threshold", LevelWarn, LevelWarn, true},
		{"error passes at warn threshold", LevelWarn, LevelError, true},
		{"info passes at debug threshold", LevelDebug, LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingLogger{}
			f := NewFilter(rec, FilterLevel(tt.threshold))
			h := NewHelper(f)

			switch tt.emit {
			case LevelDebug:
				h.Debugf("x")
			case LevelInfo:
				h.Infof("x")
			case LevelWarn:
				h.Warnf("x")
			case LevelError:
				h.Errorf("x")
			}

			got := len(rec.records) == 1
			if got != tt.want {
				t.Errorf("record passed through = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHelperNilLoggerIsNop(t *testing.T) {
	h := NewHelper(nil)
	h.Warnf("should not panic: %d", 1)
}
