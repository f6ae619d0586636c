package network

import (
	"context"
	"net"
	"time"
)

// Reachable 检查地址 (host:port) 能否在超时内建立 TCP 连接
func Reachable(ctx context.Context, address string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Unreachable 返回无法连接的地址，顺序与入参一致
func Unreachable(ctx context.Context, addresses []string, timeout time.Duration) []string {
	var down []string
	for _, addr := range addresses {
		if !Reachable(ctx, addr, timeout) {
			down = append(down, addr)
		}
	}
	return down
}
