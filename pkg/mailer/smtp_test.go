package mailer

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) (net.Listener, string, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return ln, host, port
}

func TestSMTPSender_SilentServerTimesOutAndClosesConnection(t *testing.T) {
	ln, host, port := listen(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	sender := NewSMTPSender(host, port, "", "", "ThriftGram <noreply@thriftgram.local>")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sender.Send(ctx, Email{To: []string{"bob@example.com"}, Subject: "hi", Text: "hello"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("sender never connected")
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(make([]byte, 64))
	assert.ErrorIs(t, err, io.EOF, "client side of the connection should be closed")
}

func TestSMTPSender_CanceledContextStopsWaiting(t *testing.T) {
	ln, host, port := listen(t)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			io.Copy(io.Discard, conn)
		}
	}()

	sender := NewSMTPSender(host, port, "", "", "noreply@thriftgram.local")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	err := sender.Send(ctx, Email{To: []string{"bob@example.com"}, Subject: "hi", Text: "hello"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

// serveOnce answers a single SMTP session with canned replies and reports the
// message body it received.
func serveOnce(ln net.Listener, body chan<- string) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	tp := textproto.NewConn(conn)

	tp.PrintfLine("220 localhost ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch cmd {
		case "EHLO", "HELO":
			tp.PrintfLine("250 localhost")
		case "MAIL", "RCPT":
			tp.PrintfLine("250 OK")
		case "DATA":
			tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			body <- string(data)
			tp.PrintfLine("250 queued")
		case "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 not implemented")
		}
	}
}

func TestSMTPSender_DeliversMessage(t *testing.T) {
	ln, host, port := listen(t)
	body := make(chan string, 1)
	go serveOnce(ln, body)

	sender := NewSMTPSender(host, port, "", "", "ThriftGram <noreply@thriftgram.local>")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sender.Send(ctx, Email{
		To:      []string{"bob@example.com"},
		Subject: "Order Confirmation",
		Text:    "Thanks for your order",
	})
	require.NoError(t, err)

	select {
	case got := <-body:
		assert.Contains(t, got, "To: bob@example.com")
		assert.Contains(t, got, "Subject: Order Confirmation")
		assert.Contains(t, got, "Thanks for your order")
	case <-time.After(time.Second):
		t.Fatal("server never received the message")
	}
}
