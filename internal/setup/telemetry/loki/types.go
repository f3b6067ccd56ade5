package loki

// pushRequest is the JSON payload sent to Loki.
type pushRequest struct {
	Streams []stream `json:"streams"`
}

// stream is a log stream with labels and values.
type stream struct {
	Stream map[string]string `json:"stream"`
	Values []streamValue     `json:"values"`
}

// streamValue is a tuple of [timestamp, log_line].
type streamValue []string

// logEntry is one encoded log line waiting to be shipped.
type logEntry struct {
	timestamp int64 // Unix nanoseconds
	line      string
}
