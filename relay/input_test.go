package relay

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-graphite/go-throttle/points"
	"github.com/go-graphite/go-throttle/qa"
)

func TestUDPInputNewline(t *testing.T) {
	table := []struct {
		format   string
		datagram string
		body     string
	}{
		{"plain", "a 1 1", "a 1 1\n"},
		{"plain", "a 1 1\n", "a 1 1\n"},
		{"msgpack", "\x83binary", "\x83binary"},
	}

	for _, tt := range table {
		t.Run(tt.format, func(t *testing.T) {
			bodies := make(chan string, 1)
			logger, _ := qa.Logger()

			in := &udpInput{
				addr:  "127.0.0.1:0",
				plain: tt.format == "plain",
				parser: func(body []byte) ([]*points.Points, error) {
					bodies <- string(body)
					return nil, nil
				},
				store:  func(*points.Points) {},
				logger: logger,
			}
			require.NoError(t, in.Start())
			defer in.Stop()

			client, err := net.Dial("udp", in.Addr().String())
			require.NoError(t, err)
			defer client.Close()

			_, err = client.Write([]byte(tt.datagram))
			require.NoError(t, err)

			select {
			case body := <-bodies:
				assert.Equal(t, tt.body, body)
			case <-time.After(5 * time.Second):
				t.Fatal("datagram not parsed")
			}
		})
	}
}
