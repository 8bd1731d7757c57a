// File: tests/integration_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// End-to-end upgrade tests driving the engine with a real WebSocket
// client over a hijacked HTTP connection.

package tests

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailbike/wspipe/api"
	"github.com/emailbike/wspipe/httpcodec"
	"github.com/emailbike/wspipe/pipeline"
	"github.com/emailbike/wspipe/protocol"
)

// connSink bridges a hijacked net.Conn into the pipeline transport side.
type connSink struct {
	conn net.Conn
}

func (s *connSink) WriteBytes(b []byte) error {
	_, err := s.conn.Write(b)
	return err
}

func (s *connSink) Close() error { return s.conn.Close() }

// serveUpgraded hijacks each incoming request, runs the handshake engine
// over a pipeline bound to the raw connection, and echoes decoded frames
// back to the client until the connection drops.
func serveUpgraded(t *testing.T, eng *protocol.Engine) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}

		var p *pipeline.Pipeline
		p = pipeline.New(&connSink{conn: conn}, pipeline.WithTail(func(msg any) {
			f, ok := msg.(*protocol.WSFrame)
			if !ok {
				return
			}
			// Server frames go out unmasked.
			f.Masked = false
			p.Write(f)
		}))
		if err := p.AddLast(api.StageHTTPCodec, httpcodec.NewServerCodec()); err != nil {
			t.Errorf("pipeline setup: %v", err)
			conn.Close()
			return
		}

		pr := eng.Handshake(p, &api.FullRequest{Req: r}, nil)
		if pr.Err() != nil {
			conn.Close()
			return
		}

		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if err := p.FireInbound(chunk); err != nil {
					break
				}
			}
			if err != nil {
				break
			}
		}
		p.Close()
	}))
}

func newTestEngine() *protocol.Engine {
	hs := protocol.NewHandshaker13(
		"ws://example.com/chat", "chat",
		protocol.NewDecoderConfig(),
		protocol.WithHandshakerLogf(nil),
	)
	return protocol.NewEngine(hs, protocol.WithEngineLogf(nil))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestUpgradeAndEchoRoundTrip(t *testing.T) {
	srv := serveUpgraded(t, newTestEngine())
	defer srv.Close()

	dialer := websocket.Dialer{Subprotocols: []string{"chat"}}
	conn, res, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
	assert.Equal(t, "chat", conn.Subprotocol())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	mt, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, "hello", string(payload))
}

func TestUpgradeWithoutRequestedSubprotocol(t *testing.T) {
	srv := serveUpgraded(t, newTestEngine())
	defer srv.Close()

	conn, res, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
	assert.Empty(t, conn.Subprotocol())
	assert.Empty(t, res.Header.Get("Sec-Websocket-Protocol"))
}

func TestUpgradeRejectsPlainHTTPRequest(t *testing.T) {
	srv := serveUpgraded(t, newTestEngine())
	defer srv.Close()

	// A GET without the upgrade headers must not produce a 101; the
	// server drops the connection after the failed handshake.
	conn, err := net.Dial("tcp", strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /chat HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	br := bufio.NewReader(conn)
	if line, err := br.ReadString('\n'); err == nil {
		assert.NotContains(t, line, "101")
	}
}

func TestUpgradeMultipleClientsSequentially(t *testing.T) {
	srv := serveUpgraded(t, newTestEngine())
	defer srv.Close()

	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
		mt, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.BinaryMessage, mt)
		assert.Equal(t, []byte{0x01, 0x02}, payload)
		conn.Close()
	}
}
