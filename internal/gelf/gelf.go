package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP. It expects each Write to carry one
// JSON-encoded zap entry, which makes it usable as a zapcore.WriteSyncer.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Each call sends one GELF message.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer. UDP has nothing to flush.
func (w *Writer) Sync() error { return nil }

// Close releases the UDP socket.
func (w *Writer) Close() error { return w.conn.Close() }

func (w *Writer) message(p []byte) map[string]any {
	line := strings.TrimRight(string(p), "\n")
	msg := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": line,
		"timestamp":     float64(time.Now().UnixNano()) / 1e9,
		"level":         6,
		"_service":      w.service,
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return msg
	}
	for k, v := range entry {
		switch k {
		case "msg":
			msg["short_message"] = v
		case "level":
			lvl, _ := v.(string)
			msg["level"] = syslogLevel(lvl)
		case "ts":
			if ts, ok := v.(float64); ok {
				msg["timestamp"] = ts
			}
		case "id":
			// "_id" is reserved by GELF
			msg["_entry_id"] = v
		default:
			msg["_"+k] = v
		}
	}
	return msg
}

func syslogLevel(level string) int {
	switch level {
	case "debug":
		return 7
	case "info":
		return 6
	case "warn":
		return 4
	case "error":
		return 3
	default: // dpanic, panic, fatal
		return 2
	}
}
