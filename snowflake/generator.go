// Package snowflake issues scan ids.
package snowflake

import (
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	workerBits     = 5
	datacenterBits = 5
	maxWorker      = 1<<workerBits - 1
	maxDatacenter  = 1<<datacenterBits - 1
	maxNode        = 1<<(workerBits+datacenterBits) - 1
)

var (
	once sync.Once
	node *snowflake.Node
)

// hardwareAddr returns the MAC of the first interface holding a non-loopback
// IPv4 address.
func hardwareAddr() net.HardwareAddr {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	for _, inter := range interfaces {
		addrs, err := inter.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ip, ok := addr.(*net.IPNet); ok && !ip.IP.IsLoopback() && ip.IP.To4() != nil {
				return inter.HardwareAddr
			}
		}
	}
	return nil
}

func datacenterID(mac net.HardwareAddr) int64 {
	if len(mac) < 2 {
		return 1
	}
	id := (int64(mac[len(mac)-2]) | int64(mac[len(mac)-1])<<8) >> 6
	return id % (maxDatacenter + 1)
}

func workerID(datacenter int64, pid int) int64 {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d%d", datacenter, pid)
	return int64(h.Sum32()&0xffff) % (maxWorker + 1)
}

func nodeID(mac net.HardwareAddr, pid int) int64 {
	dc := datacenterID(mac)
	return max(0, min(maxNode, dc<<workerBits|workerID(dc, pid)))
}

func getNode() *snowflake.Node {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(nodeID(hardwareAddr(), os.Getpid()))
		if err != nil {
			// nodeID is clamped to the valid range
			panic(err)
		}
	})
	return node
}

func Generate() int64 {
	return getNode().Generate().Int64()
}

// NewScanID returns a unique, time-ordered id for one scan.
func NewScanID() string {
	return getNode().Generate().String()
}
