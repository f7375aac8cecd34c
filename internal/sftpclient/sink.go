package sftpclient

import (
	"bytes"
	"context"
)

// Sink uploads run reports over SFTP.
type Sink struct {
	Config Config
}

func (s Sink) Name() string { return "sftp" }

func (s Sink) Put(ctx context.Context, name string, data []byte) error {
	return Upload(ctx, s.Config, bytes.NewReader(data), name)
}
