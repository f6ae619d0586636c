package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	open := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	defer ln.Close()

	// 占用后立即释放的端口视为不可达
	tmp, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closed := tmp.Addr().String()
	tmp.Close()

	ctx := context.Background()
	assert.True(t, Reachable(ctx, open, time.Second))
	assert.False(t, Reachable(ctx, closed, time.Second))
	assert.Equal(t, []string{closed}, Unreachable(ctx, []string{open, closed}, time.Second))
}
