package metrics

import "testing"

func TestConvertSize(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0B"},
		{1, "1.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1289748, "1.23 MB"},
		{1073741824, "1.0 GB"},
		{1 << 40, "1.0 TB"},
	}

	for _, tt := range tests {
		if got := ConvertSize(tt.in); got != tt.want {
			t.Errorf("ConvertSize(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
