//go:build !pcap
// +build !pcap

package telemetry

import (
	"context"
	"fmt"
)

// ReplayPCAP is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable packet capture replay.
func ReplayPCAP(ctx context.Context, pcapFile string, udpPort int, fn func(Record)) error {
	return fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable capture replay")
}
