package mailer

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFailsWithinTimeoutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Accept the connection but never send an SMTP greeting
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	m := NewSMTPMailer(host, port, "", "", "noreply@example.com", 100*time.Millisecond)
	start := time.Now()
	err = m.Send(&Email{
		To:       "dev@example.com",
		Subject:  "Test",
		TextBody: "hello",
		HTMLBody: "<p>hello</p>",
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSendFailsFastWhenServerUnreachable(t *testing.T) {
	// Grab a free port and close it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(host, port, "", "", "noreply@example.com", 100*time.Millisecond)
	err = m.Send(&Email{To: "dev@example.com", Subject: "Test", TextBody: "hello"})
	require.Error(t, err)
}

func TestBuildMessageCarriesBothParts(t *testing.T) {
	msg := buildMessage("noreply@example.com", &Email{
		To:       "dev@example.com",
		Subject:  "Digest",
		TextBody: "plain part",
		HTMLBody: "<p>html part</p>",
	})

	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: dev@example.com\r\n")
	assert.Contains(t, msg, "Subject: Digest\r\n")
	assert.Contains(t, msg, "Content-Type: multipart/alternative")
	assert.Contains(t, msg, "plain part")
	assert.Contains(t, msg, "<p>html part</p>")
}
