package main

import (
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_ReturnsStartError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	done := make(chan error, 1)
	go func() { done <- serve(e, busy.Addr().String(), make(chan os.Signal)) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "server start")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServe_ShutsDownOnSignal(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- serve(e, "127.0.0.1:0", stop) }()

	stop <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not return after the signal")
	}
}
